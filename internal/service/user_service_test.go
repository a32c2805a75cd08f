package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clouddisk/internal/auth"
	apperrors "clouddisk/internal/errors"
	"clouddisk/internal/model"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateByUsername(ctx context.Context, username string, updates map[string]interface{}) (*model.User, error) {
	args := m.Called(ctx, username, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockCodeStore is a mock implementation of auth.CodeStoreInterface.
type MockCodeStore struct {
	mock.Mock
}

func (m *MockCodeStore) Put(ctx context.Context, address, code string, ttl time.Duration) error {
	args := m.Called(ctx, address, code, ttl)
	return args.Error(0)
}

func (m *MockCodeStore) Get(ctx context.Context, address string) (string, bool, error) {
	args := m.Called(ctx, address)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCodeStore) Delete(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

// MockRevocationList is a mock implementation of auth.RevocationListInterface.
type MockRevocationList struct {
	mock.Mock
}

func (m *MockRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockMailer is a mock implementation of mail.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type fixtures struct {
	repo    *MockUserRepository
	codes   *MockCodeStore
	revoked *MockRevocationList
	mailer  *MockMailer
	hasher  *auth.PasswordHasher
	tokens  *auth.JWTService
}

func newService(cfg UserServiceConfig) (UserService, *fixtures) {
	f := &fixtures{
		repo:    new(MockUserRepository),
		codes:   new(MockCodeStore),
		revoked: new(MockRevocationList),
		mailer:  new(MockMailer),
		hasher:  auth.NewPasswordHasher(),
		tokens:  auth.NewJWTService("test-secret", time.Hour),
	}
	svc := NewUserService(f.repo, f.hasher, f.tokens, f.codes, f.revoked, f.mailer, cfg)
	return svc, f
}

func defaultConfig() UserServiceConfig {
	return UserServiceConfig{
		AppURL:          "http://localhost:8080",
		AccountValidFor: 3 * 24 * time.Hour,
	}
}

func TestUserService_SendVerificationCode(t *testing.T) {
	svc, f := newService(defaultConfig())

	var storedCode string
	f.codes.On("Put", mock.Anything, "a@b.com", mock.Anything, auth.CodeTTL).
		Run(func(args mock.Arguments) { storedCode = args.String(2) }).
		Return(nil)
	f.mailer.On("Send", mock.Anything, "a@b.com", mock.Anything, mock.Anything).Return(nil)

	err := svc.SendVerificationCode(context.Background(), "a@b.com")
	require.NoError(t, err)

	require.Len(t, storedCode, 6)
	body := f.mailer.Calls[0].Arguments.String(3)
	assert.Contains(t, body, storedCode)
	f.codes.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestUserService_SendVerificationCode_MailFailure(t *testing.T) {
	svc, f := newService(defaultConfig())

	f.codes.On("Put", mock.Anything, "a@b.com", mock.Anything, auth.CodeTTL).Return(nil)
	f.mailer.On("Send", mock.Anything, "a@b.com", mock.Anything, mock.Anything).
		Return(errors.New("transport down"))

	err := svc.SendVerificationCode(context.Background(), "a@b.com")
	assert.Error(t, err)
	// The code was stored before the send attempt, so a resend keeps working.
	f.codes.AssertCalled(t, "Put", mock.Anything, "a@b.com", mock.Anything, auth.CodeTTL)
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name          string
		cfg           UserServiceConfig
		username      string
		email         string
		code          string
		setupMock     func(*fixtures)
		expectedError error
	}{
		{
			name:     "successful registration",
			cfg:      defaultConfig(),
			username: "alice",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "username taken",
			cfg:      defaultConfig(),
			username: "alice",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice"}, nil)
			},
			expectedError: apperrors.ErrUserExists,
		},
		{
			name:     "verification required but pair omitted",
			cfg:      UserServiceConfig{AppURL: "http://x", RequireEmailVerification: true, AccountValidFor: time.Hour},
			username: "bob",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrVerificationRequired,
		},
		{
			name:     "wrong verification code",
			cfg:      UserServiceConfig{AppURL: "http://x", RequireEmailVerification: true, AccountValidFor: time.Hour},
			username: "bob",
			email:    "b@c.com",
			code:     "000000",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
				f.codes.On("Get", mock.Anything, "b@c.com").Return("123456", true, nil)
			},
			expectedError: apperrors.ErrCodeInvalid,
		},
		{
			name:     "verification code expired",
			cfg:      UserServiceConfig{AppURL: "http://x", RequireEmailVerification: true, AccountValidFor: time.Hour},
			username: "bob",
			email:    "b@c.com",
			code:     "123456",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
				f.codes.On("Get", mock.Anything, "b@c.com").Return("", false, nil)
			},
			expectedError: apperrors.ErrCodeInvalid,
		},
		{
			name:     "matching verification code",
			cfg:      UserServiceConfig{AppURL: "http://x", RequireEmailVerification: true, AccountValidFor: time.Hour},
			username: "bob",
			email:    "b@c.com",
			code:     "123456",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
				f.codes.On("Get", mock.Anything, "b@c.com").Return("123456", true, nil)
				f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				f.codes.On("Delete", mock.Anything, "b@c.com").Return(nil)
			},
		},
		{
			name:     "duplicate key at insert",
			cfg:      defaultConfig(),
			username: "alice",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f := newService(tt.cfg)
			tt.setupMock(f)

			user, err := svc.Register(context.Background(), tt.username, "secret1", tt.email, tt.code)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.username, user.Username)
				assert.Empty(t, user.PasswordHash)
				assert.Equal(t, model.RoleMember, user.Role)
				assert.Equal(t, model.LevelNormal, user.Level)
				assert.Len(t, user.Code, 6)
				assert.True(t, strings.HasSuffix(user.Avatar, "/imgs/avatar.jpg"))
				assert.True(t, user.ExpiresAt.After(time.Now()))
			}

			f.repo.AssertExpectations(t)
			f.codes.AssertExpectations(t)
		})
	}
}

func TestUserService_Register_PersistsHashNotPlaintext(t *testing.T) {
	svc, f := newService(defaultConfig())

	var persisted *model.User
	f.repo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { persisted = args.Get(1).(*model.User) }).
		Return(nil)

	_, err := svc.Register(context.Background(), "alice", "secret1", "", "")
	require.NoError(t, err)

	require.NotNil(t, persisted)
	assert.NotEmpty(t, persisted.PasswordHash)
	assert.NotContains(t, persisted.PasswordHash, "secret1")

	ok, err := f.hasher.Verify(persisted.PasswordHash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserService_Login(t *testing.T) {
	hasher := auth.NewPasswordHasher()
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*fixtures)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "secret1",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           1,
					Username:     "alice",
					PasswordHash: digest,
					ExpiresAt:    time.Now().Add(time.Hour),
				}, nil)
			},
		},
		{
			name:     "unknown user",
			username: "nobody",
			password: "secret1",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrBadCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "wrong",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           1,
					Username:     "alice",
					PasswordHash: digest,
					ExpiresAt:    time.Now().Add(time.Hour),
				}, nil)
			},
			expectedError: apperrors.ErrBadCredentials,
		},
		{
			name:     "expired account with correct password",
			username: "alice",
			password: "secret1",
			setupMock: func(f *fixtures) {
				f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           1,
					Username:     "alice",
					PasswordHash: digest,
					ExpiresAt:    time.Now().Add(-time.Second),
				}, nil)
			},
			expectedError: apperrors.ErrAccountExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f := newService(defaultConfig())
			tt.setupMock(f)

			token, user, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.username, user.Username)
				assert.Empty(t, user.PasswordHash)

				claims, err := f.tokens.Verify(token)
				require.NoError(t, err)
				assert.Equal(t, tt.username, claims.Username)
			}

			f.repo.AssertExpectations(t)
		})
	}
}

func TestUserService_Login_CorruptDigest(t *testing.T) {
	svc, f := newService(defaultConfig())

	f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
		ID:           1,
		Username:     "alice",
		PasswordHash: "not-a-digest",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil)

	_, _, err := svc.Login(context.Background(), "alice", "secret1")
	require.Error(t, err)
	// A corrupt record is an internal failure, not a credential mismatch.
	assert.NotErrorIs(t, err, apperrors.ErrBadCredentials)
	assert.ErrorIs(t, err, auth.ErrMalformedDigest)
}

func TestUserService_GetUserInfo(t *testing.T) {
	svc, f := newService(defaultConfig())

	f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
		Username:     "alice",
		PasswordHash: "digest",
	}, nil)
	f.repo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.GetUserInfo(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetUserInfo(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserService_UpdateUserInfo(t *testing.T) {
	svc, f := newService(defaultConfig())

	name := "Alice L."
	phone := "1234567"
	f.repo.On("UpdateByUsername", mock.Anything, "alice", map[string]interface{}{
		"name":  name,
		"phone": phone,
	}).Return(&model.User{Username: "alice", Name: name, Phone: phone, PasswordHash: "digest"}, nil)

	user, err := svc.UpdateUserInfo(context.Background(), "alice", &UserUpdate{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, name, user.Name)
	assert.Empty(t, user.PasswordHash)
	f.repo.AssertExpectations(t)
}

func TestUserService_UpdateUserInfo_NotFound(t *testing.T) {
	svc, f := newService(defaultConfig())

	name := "Ghost"
	f.repo.On("UpdateByUsername", mock.Anything, "ghost", mock.Anything).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.UpdateUserInfo(context.Background(), "ghost", &UserUpdate{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	f.repo.AssertExpectations(t)
}

func TestUserService_UpdateUserInfo_NoFields(t *testing.T) {
	svc, f := newService(defaultConfig())

	f.repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice"}, nil)

	user, err := svc.UpdateUserInfo(context.Background(), "alice", &UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	f.repo.AssertNotCalled(t, "UpdateByUsername", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Logout(t *testing.T) {
	svc, f := newService(defaultConfig())

	f.revoked.On("Revoke", mock.Anything, "jti-1", time.Hour).Return(nil)

	err := svc.Logout(context.Background(), "jti-1", time.Hour)
	require.NoError(t, err)
	f.revoked.AssertExpectations(t)
}
