package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/infrastructure/config"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPDispatcher publishes order confirmation messages to a durable queue
// consumed by the mailer worker. Publishing is fire-and-forget from the
// caller's point of view; the worker owns retries and delivery.
type AMQPDispatcher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     config.NotificationConfig
	logger  *zap.Logger
}

var _ appordering.NotificationDispatcher = (*AMQPDispatcher)(nil)

// confirmationMessage is the wire format consumed by the mailer worker.
type confirmationMessage struct {
	OrderID        string             `json:"order_id"`
	RecipientEmail string             `json:"recipient_email"`
	RecipientName  string             `json:"recipient_name"`
	SenderEmail    string             `json:"sender_email"`
	SenderName     string             `json:"sender_name"`
	Subject        string             `json:"subject"`
	Body           string             `json:"body"`
	Items          []confirmationItem `json:"items"`
	ItemQuantity   int                `json:"item_quantity"`
	DeliveryFee    string             `json:"delivery_fee"`
	TotalAmount    string             `json:"total_amount"`
	PlacedAt       time.Time          `json:"placed_at"`
}

type confirmationItem struct {
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// NewAMQPDispatcher connects to the broker and declares the confirmation
// queue as durable so messages survive broker restarts.
func NewAMQPDispatcher(cfg config.NotificationConfig, logger *zap.Logger) (*AMQPDispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	logger.Info("Notification dispatcher connected",
		zap.String("queue", cfg.Queue))

	return &AMQPDispatcher{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// SendOrderConfirmation publishes the confirmation as a persistent message
func (d *AMQPDispatcher) SendOrderConfirmation(ctx context.Context, confirmation appordering.OrderConfirmation) error {
	message := confirmationMessage{
		OrderID:        confirmation.OrderID.String(),
		RecipientEmail: confirmation.RecipientEmail,
		RecipientName:  confirmation.RecipientName,
		SenderEmail:    d.cfg.SenderEmail,
		SenderName:     d.cfg.SenderName,
		Subject:        fmt.Sprintf("Order confirmation %s", confirmation.OrderID),
		Body:           RenderConfirmationBody(confirmation),
		ItemQuantity:   confirmation.ItemQuantity,
		DeliveryFee:    confirmation.DeliveryFee,
		TotalAmount:    confirmation.TotalAmount,
		PlacedAt:       confirmation.PlacedAt,
	}
	for _, item := range confirmation.Items {
		message.Items = append(message.Items, confirmationItem{
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}

	if err := d.channel.Publish(
		"",          // default exchange
		d.cfg.Queue, // routing key is the queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		return fmt.Errorf("failed to publish confirmation: %w", err)
	}

	d.logger.Debug("Order confirmation published",
		zap.String("order_id", message.OrderID),
		zap.String("recipient", message.RecipientEmail))
	return nil
}

// Close closes the channel and the connection
func (d *AMQPDispatcher) Close() error {
	var errs []string
	if d.channel != nil {
		if err := d.channel.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close AMQP dispatcher: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RenderConfirmationBody renders the plain-text confirmation email body
func RenderConfirmationBody(confirmation appordering.OrderConfirmation) string {
	var b strings.Builder

	name := confirmation.RecipientName
	if name == "" {
		name = "customer"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for your order %s placed on %s.\n\n",
		confirmation.OrderID, confirmation.PlacedAt.Format("January 2, 2006"))

	for _, item := range confirmation.Items {
		if item.Size != "" {
			fmt.Fprintf(&b, "  %dx %s (%s) @ %s\n",
				item.Quantity, item.ProductName, item.Size, item.UnitPrice)
		} else {
			fmt.Fprintf(&b, "  %dx %s @ %s\n",
				item.Quantity, item.ProductName, item.UnitPrice)
		}
	}

	fmt.Fprintf(&b, "\nDelivery fee: %s\n", confirmation.DeliveryFee)
	fmt.Fprintf(&b, "Total: %s\n\n", confirmation.TotalAmount)
	b.WriteString("We will let you know as soon as your order ships.\n")

	return b.String()
}
