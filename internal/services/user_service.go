package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/auth"
	"github.com/Legalistas/brixar-sub002/internal/db"
	"github.com/Legalistas/brixar-sub002/internal/models"
)

// IUserService defines the account operations used by the auth endpoints.
type IUserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) IUserService {
	return &userService{db: db}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validationErrorf("invalid email address")
	}
	return email, nil
}

// Register creates a CUSTOMER account.
func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < auth.MinPasswordLength {
		return nil, validationErrorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error creating user %s: %w", email, err)
	}
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email or a wrong password alike.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) FindByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, lookupError("user", userID, err)
	}
	return &user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, lookupError("user", email, err)
	}
	return &user, nil
}

// EnsureUser creates the account or resets its password and role. Used to seed staff accounts.
func (s *userService) EnsureUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, validationErrorf("unknown role %q", role)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, writeError("creating user", err)
		}
	case err != nil:
		return nil, lookupError("user", email, err)
	default:
		err = s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
			"name":          name,
			"password_hash": hash,
			"role":          role,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("error updating user %s: %w", email, err)
		}
	}
	return &user, nil
}
