package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyboost/tutor-market-api/internal/models"
	"github.com/studyboost/tutor-market-api/pkg/config"
	appErrors "github.com/studyboost/tutor-market-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User

	loginStateID      string
	loginStateAttempt int
	loginStateLocked  *time.Time
	loginStateCalls   int
	recordedLoginID   string
	recordedLoginAt   time.Time
	createdUser       *models.User
	updatedHash       string
	resetHash         string
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{usersByEmail: map[string]*models.User{}, usersByID: map[string]*models.User{}}
	for _, u := range users {
		m.usersByEmail[u.Email] = u
		m.usersByID[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "generated"
	m.createdUser = user
	return nil
}

func (m *mockAuthRepo) UpdateLoginState(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error {
	m.loginStateID = id
	m.loginStateAttempt = attempts
	m.loginStateLocked = lockedUntil
	m.loginStateCalls++
	if u, ok := m.usersByID[id]; ok {
		u.LoginAttempts = attempts
		u.LockedUntil = lockedUntil
	}
	return nil
}

func (m *mockAuthRepo) RecordLogin(ctx context.Context, id string, ts time.Time) error {
	m.recordedLoginID = id
	m.recordedLoginAt = ts
	if u, ok := m.usersByID[id]; ok {
		u.LoginAttempts = 0
		u.LockedUntil = nil
		u.LastLogin = &ts
	}
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.updatedHash = passwordHash
	return nil
}

func (m *mockAuthRepo) ResetPassword(ctx context.Context, id, passwordHash string) error {
	m.resetHash = passwordHash
	if u, ok := m.usersByID[id]; ok {
		u.PasswordHash = passwordHash
		u.LoginAttempts = 0
		u.LockedUntil = nil
	}
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	tokens := NewTokenService(testJWTConfig(), zap.NewNop())
	return NewAuthService(repo, tokens, nil, nil, zap.NewNop(), config.AuthConfig{MaxLoginAttempts: 5, LockoutDuration: 15 * time.Minute})
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &models.User{ID: "u1", Name: "Student One", Email: "student@example.com", Role: models.RoleStudent, PasswordHash: hash, Active: true}
}

func TestLoginSuccessResetsLockState(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	user.LoginAttempts = 3
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	pair, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "u1", repo.recordedLoginID)
	assert.Equal(t, 0, user.LoginAttempts)
	assert.Nil(t, user.LockedUntil)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginWrongPasswordIncrementsAttempts(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.loginStateAttempt)
	assert.Nil(t, repo.loginStateLocked)
}

func TestLoginLocksAfterMaxFailures(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	for i := 0; i < 4; i++ {
		_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	}

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountLocked.Code, appErrors.FromError(err).Code)
	require.NotNil(t, repo.loginStateLocked)
	assert.Equal(t, 0, repo.loginStateAttempt)

	// Even the correct password is rejected while locked.
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "Sup3rSecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountLocked.Code, appErrors.FromError(err).Code)
}

func TestLoginSucceedsAfterLockExpires(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	pair, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Nil(t, user.LockedUntil)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.loginStateCalls)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	user.Active = false
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "Sup3rSecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Sneaky", Email: "sneaky@example.com", Password: "Abcdef12", Phone: "123456", Role: models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Other", Email: user.Email, Password: "Abcdef12", Phone: "123456", Role: models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	profile, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "New Student", Email: "new@example.com", Password: "Abcdef12", Phone: "123456", Role: models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", profile.Email)
	require.NotNil(t, repo.createdUser)
	assert.NotEqual(t, "Abcdef12", repo.createdUser.PasswordHash)
	assert.True(t, VerifyPassword("Abcdef12", repo.createdUser.PasswordHash))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	pair, err := svc.tokens.IssueLoginTokens(user)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: pair.AccessToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	pair, err := svc.tokens.IssueLoginTokens(user)
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
	assert.NotEmpty(t, fresh.RefreshToken)
}

func TestPasswordResetFlow(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	locked := time.Now().Add(10 * time.Minute)
	user.LockedUntil = &locked
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	token, err := svc.RequestPasswordReset(context.Background(), models.PasswordResetRequest{Email: user.Email})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = svc.ResetPassword(context.Background(), models.PasswordResetConfirm{Token: token, NewPassword: "NewPass12"})
	require.NoError(t, err)
	assert.True(t, VerifyPassword("NewPass12", user.PasswordHash))
	assert.Nil(t, user.LockedUntil)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	token, err := svc.RequestPasswordReset(context.Background(), models.PasswordResetRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	user := activeUser(t, "Sup3rSecret")
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "NewPass12"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{OldPassword: "Sup3rSecret", NewPassword: "NewPass12"})
	require.NoError(t, err)
	assert.True(t, VerifyPassword("NewPass12", repo.updatedHash))
}
