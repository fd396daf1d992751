package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/auth"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/config"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// AuthService coordinates registration, login and password flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tx         repository.TxManager
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	TxManager         repository.TxManager
	Logger            *zap.Logger
}

// RegisterInput is a resident's self-registration.
type RegisterInput struct {
	Name                string
	Email               string
	Password            string
	MobileNumber        string
	Address             string
	AddressSitio        string
	AddressBarangay     string
	AddressMunicipality string
	AddressProvince     string
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tx:         deps.TxManager,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		resetTTL:   time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		logger:     logger,
		now:        utcNow,
	}
}

// Register creates a resident account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)

	details := map[string]any{}
	if name == "" {
		details["name"] = "is required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "must be a valid email address"
	}
	if len(input.Password) < auth.MinPasswordLength {
		details["password"] = auth.ErrPasswordTooShort.Error()
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:                name,
		Email:               email,
		PasswordHash:        hash,
		Role:                domain.RoleResident,
		MobileNumber:        strings.TrimSpace(input.MobileNumber),
		Address:             strings.TrimSpace(input.Address),
		AddressSitio:        strings.TrimSpace(input.AddressSitio),
		AddressBarangay:     strings.TrimSpace(input.AddressBarangay),
		AddressMunicipality: strings.TrimSpace(input.AddressMunicipality),
		AddressProvince:     strings.TrimSpace(input.AddressProvince),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	s.logger.Info("resident registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, currentPassword, newPassword string) error {
	if actor.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// RequestPasswordReset creates a reset token for email. Unknown emails yield
// a nil token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return token, nil
}

// ConfirmPasswordReset consumes a reset token and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.resets.GetByToken(ctx, tokenStr)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("invalid reset token", nil)
			}
			return err
		}
		if !token.Usable(s.now()) {
			return apperrors.NewValidationError("token expired or used", nil)
		}
		if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("token expired or used", nil)
			}
			return err
		}
		return s.users.UpdatePassword(ctx, token.UserID, hash)
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return "", apperrors.NewValidationError(err.Error(), map[string]any{"new_password": err.Error()})
	}
	return hash, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
