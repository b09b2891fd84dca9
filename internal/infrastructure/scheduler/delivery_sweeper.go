package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// OverdueSweeper performs one pass over shipped orders past the auto-delivery
// deadline and returns how many were marked delivered.
type OverdueSweeper interface {
	SweepOverdueShipments(ctx context.Context, now time.Time) (int, error)
}

// DeliverySweeper periodically runs the overdue-shipment sweep. The sweep
// itself is idempotent, so a pass that fails halfway is simply retried on the
// next tick.
type DeliverySweeper struct {
	config  config.SweepConfig
	sweeper OverdueSweeper
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewDeliverySweeper creates a new DeliverySweeper
func NewDeliverySweeper(cfg config.SweepConfig, sweeper OverdueSweeper, logger *zap.Logger) *DeliverySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliverySweeper{
		config:  cfg,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start runs an immediate sweep and then keeps sweeping on the configured
// interval until Stop is called. Starting an already-running sweeper is a
// no-op.
func (s *DeliverySweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Delivery sweeper started",
		zap.Duration("check_interval", s.config.CheckInterval))

	return nil
}

// Stop stops the sweeper and waits for an in-flight pass to finish
func (s *DeliverySweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Delivery sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DeliverySweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	// Catch up on anything that went overdue while the service was down
	s.sweep(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *DeliverySweeper) sweep(ctx context.Context) {
	delivered, err := s.sweeper.SweepOverdueShipments(ctx, time.Now())
	if err != nil {
		s.logger.Error("Delivery sweep failed", zap.Error(err))
		return
	}
	if delivered > 0 {
		s.logger.Info("Delivery sweep completed",
			zap.Int("delivered", delivered))
	}
}
