package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/shop/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role represents the capability level of an account
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// IsStaff returns true for roles allowed to run fulfillment actions
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Password cost for bcrypt
const bcryptCost = 12

// Account represents an identity in the store: customers, employees, admins.
// It is the aggregate root for account-related operations.
type Account struct {
	shared.BaseAggregateRoot
	Username     string         `gorm:"uniqueIndex;size:100;not null"`
	Email        string         `gorm:"uniqueIndex;size:200;not null"`
	PasswordHash string         `gorm:"size:255;not null"`
	FirstName    string         `gorm:"size:100"`
	LastName     string         `gorm:"size:100"`
	Phone        string         `gorm:"size:20"`
	Address      string         `gorm:"size:500"`
	Role         Role           `gorm:"size:20;not null;index"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// NewAccount creates a new account with the given role
func NewAccount(username, email, password string, role Role) (*Account, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown account role")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      hash,
		Role:              role,
	}, nil
}

// NewCustomer creates a new customer account
func NewCustomer(username, email, password string) (*Account, error) {
	return NewAccount(username, email, password, RoleCustomer)
}

// DisplayName returns the name used in confirmations and greetings
func (a *Account) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Username
	}
	return name
}

// VerifyPassword checks the given plaintext password against the stored hash
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// ChangePassword verifies the old password and replaces it with the new one
func (a *Account) ChangePassword(oldPassword, newPassword string) error {
	if !a.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Old password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	a.PasswordHash = hash
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// UpdateProfile updates the mutable profile fields
func (a *Account) UpdateProfile(firstName, lastName, phone, address string) error {
	if phone != "" && !regexp.MustCompile(`^[0-9]{7,15}$`).MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Phone must be 7 to 15 digits")
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	a.FirstName = strings.TrimSpace(firstName)
	a.LastName = strings.TrimSpace(lastName)
	a.Phone = phone
	a.Address = strings.TrimSpace(address)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`).MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`).MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
