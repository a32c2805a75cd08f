package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clouddisk/internal/auth"
	apperrors "clouddisk/internal/errors"
	"clouddisk/internal/mail"
	"clouddisk/internal/model"
	"clouddisk/internal/repository"
)

const defaultAvatarPath = "/imgs/avatar.jpg"

// UserUpdate carries the profile fields a user may change. Nil fields are
// left untouched.
type UserUpdate struct {
	Phone  *string
	Email  *string
	Name   *string
	Avatar *string
	Wechat *string
}

// UserService orchestrates registration, login and verification-code
// issuance.
type UserService interface {
	SendVerificationCode(ctx context.Context, email string) error
	Register(ctx context.Context, username, password, email, code string) (*model.User, error)
	Login(ctx context.Context, username, password string) (token string, user *model.User, err error)
	GetUserInfo(ctx context.Context, username string) (*model.User, error)
	UpdateUserInfo(ctx context.Context, username string, update *UserUpdate) (*model.User, error)
	Logout(ctx context.Context, tokenID string, remaining time.Duration) error
}

// UserServiceConfig holds the policy knobs the service needs.
type UserServiceConfig struct {
	AppURL                   string
	RequireEmailVerification bool
	AccountValidFor          time.Duration
}

type userService struct {
	repo    repository.UserRepository
	hasher  *auth.PasswordHasher
	tokens  *auth.JWTService
	codes   auth.CodeStoreInterface
	revoked auth.RevocationListInterface
	mailer  mail.Mailer
	cfg     UserServiceConfig
}

// NewUserService builds a UserService with its collaborators.
func NewUserService(
	repo repository.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.JWTService,
	codes auth.CodeStoreInterface,
	revoked auth.RevocationListInterface,
	mailer mail.Mailer,
	cfg UserServiceConfig,
) UserService {
	return &userService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		codes:   codes,
		revoked: revoked,
		mailer:  mailer,
		cfg:     cfg,
	}
}

// SendVerificationCode stores a fresh code for the address and mails it.
// A resend overwrites the previous code; the stored code survives a mail
// failure so a retry keeps working against the same entry.
func (s *userService) SendVerificationCode(ctx context.Context, email string) error {
	code, err := auth.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.codes.Put(ctx, email, code, auth.CodeTTL); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It is valid for %d minutes.",
		code, int(auth.CodeTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, "Registration verification code", body); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

// Register creates a new account. When email verification is required the
// email+code pair is mandatory and must match the stored code.
func (s *userService) Register(ctx context.Context, username, password, email, code string) (*model.User, error) {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	if s.cfg.RequireEmailVerification {
		if email == "" || code == "" {
			return nil, apperrors.ErrVerificationRequired
		}
		stored, ok, err := s.codes.Get(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("read verification code: %w", err)
		}
		if !ok || stored != code {
			return nil, apperrors.ErrCodeInvalid
		}
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: digest,
		Email:        email,
		Avatar:       s.cfg.AppURL + defaultAvatarPath,
		Role:         model.RoleMember,
		Level:        model.LevelNormal,
		Code:         rotateAccountCode(),
		ExpiresAt:    time.Now().Add(s.cfg.AccountValidFor),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.cfg.RequireEmailVerification {
		// Consume the code so it cannot gate a second registration.
		_ = s.codes.Delete(ctx, email)
	}

	return user.Sanitized(), nil
}

// Login verifies credentials, enforces account expiry and issues a token.
func (s *userService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrBadCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		// Malformed stored digest is a corrupt record, not a mismatch.
		return "", nil, fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok {
		return "", nil, apperrors.ErrBadCredentials
	}

	if user.Expired(time.Now()) {
		return "", nil, apperrors.ErrAccountExpired
	}

	token, err := s.tokens.Sign(user.Username, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return token, user.Sanitized(), nil
}

// GetUserInfo returns the account view for username, hash excluded.
func (s *userService) GetUserInfo(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Sanitized(), nil
}

// UpdateUserInfo merges the non-nil fields into the account and returns
// the fresh view.
func (s *userService) UpdateUserInfo(ctx context.Context, username string, update *UserUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.Email != nil {
		updates["email"] = *update.Email
	}
	if update.Name != nil {
		updates["name"] = *update.Name
	}
	if update.Avatar != nil {
		updates["avatar"] = *update.Avatar
	}
	if update.Wechat != nil {
		updates["wechat"] = *update.Wechat
	}

	if len(updates) == 0 {
		return s.GetUserInfo(ctx, username)
	}

	user, err := s.repo.UpdateByUsername(ctx, username, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user.Sanitized(), nil
}

// Logout denylists the session's token ID for the remainder of its
// lifetime, so the token dies now instead of at natural expiry.
func (s *userService) Logout(ctx context.Context, tokenID string, remaining time.Duration) error {
	if err := s.revoked.Revoke(ctx, tokenID, remaining); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// rotateAccountCode produces the opaque per-account code assigned at
// registration.
func rotateAccountCode() string {
	id := uuid.New().String()
	return id[len(id)-6:]
}
