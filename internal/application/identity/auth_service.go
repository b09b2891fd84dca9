package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TokenIssuer issues signed access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, username string, role identity.Role) (token string, expiresAt time.Time, err error)
}

// AuthService handles registration, authentication and profile operations
type AuthService struct {
	accountRepo identity.AccountRepository
	tokens      TokenIssuer
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(accountRepo identity.AccountRepository, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accountRepo: accountRepo,
		tokens:      tokens,
		logger:      logger,
	}
}

// Register creates a new customer account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error) {
	taken, err := s.accountRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}
	taken, err = s.accountRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	account, err := identity.NewCustomer(req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if req.FirstName != "" || req.LastName != "" || req.Phone != "" || req.Address != "" {
		if err := account.UpdateProfile(req.FirstName, req.LastName, req.Phone, req.Address); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account registered",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID.String()))

	response := ToAccountResponse(account)
	return &response, nil
}

// Login authenticates an account and issues an access token. Unknown
// usernames and wrong passwords produce the same error so the response does
// not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.accountRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		s.logger.Warn("Login attempt for unknown username", zap.String("username", req.Username))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	if !account.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", req.Username))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Username, account.Role)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("Account logged in",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID.String()))

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   ToAccountResponse(account),
	}, nil
}

// GetProfile returns the account of the authenticated caller
func (s *AuthService) GetProfile(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// UpdateProfile updates the caller's contact details
func (s *AuthService) UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.UpdateProfile(req.FirstName, req.LastName, req.Phone, req.Address); err != nil {
		return nil, err
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// ChangePassword changes the caller's password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, accountID uuid.UUID, req ChangePasswordRequest) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := account.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return s.accountRepo.Save(ctx, account)
}

// CreateEmployee creates a staff account. Only admins may call this.
func (s *AuthService) CreateEmployee(ctx context.Context, actorRole identity.Role, req CreateEmployeeRequest) (*AccountResponse, error) {
	if actorRole != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	taken, err := s.accountRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}
	taken, err = s.accountRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	account, err := identity.NewAccount(req.Username, req.Email, req.Password, identity.RoleEmployee)
	if err != nil {
		return nil, err
	}
	if req.FirstName != "" || req.LastName != "" {
		if err := account.UpdateProfile(req.FirstName, req.LastName, "", ""); err != nil {
			return nil, err
		}
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Employee account created",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID.String()))

	response := ToAccountResponse(account)
	return &response, nil
}

// RemoveEmployee soft-deletes a staff account. Only admins may call this,
// and only employee accounts can be removed; admin and customer accounts
// are out of reach.
func (s *AuthService) RemoveEmployee(ctx context.Context, actorRole identity.Role, employeeID uuid.UUID) error {
	if actorRole != identity.RoleAdmin {
		return shared.ErrForbidden
	}

	account, err := s.accountRepo.FindByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if account.Role != identity.RoleEmployee {
		return shared.NewDomainError("INVALID_ROLE", "Only employee accounts can be removed")
	}

	if err := s.accountRepo.Delete(ctx, account.ID); err != nil {
		return err
	}

	s.logger.Info("Employee account removed",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID.String()))
	return nil
}

// ListEmployees lists staff accounts for admins.
func (s *AuthService) ListEmployees(ctx context.Context, actorRole identity.Role) ([]AccountResponse, error) {
	if actorRole != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}
	accounts, err := s.accountRepo.FindByRole(ctx, identity.RoleEmployee, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	responses := make([]AccountResponse, 0, len(accounts))
	for idx := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[idx]))
	}
	return responses, nil
}
