package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
)

// MockPasswordResetTokenRepository mocks the PasswordResetTokenRepository interface
type MockPasswordResetTokenRepository struct {
	mock.Mock
}

func (m *MockPasswordResetTokenRepository) Create(token *models.PasswordResetToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockPasswordResetTokenRepository) FindValidByToken(token string) (*models.PasswordResetToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordResetToken), args.Error(1)
}

func (m *MockPasswordResetTokenRepository) ExistsByToken(token string) (bool, error) {
	args := m.Called(token)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordResetTokenRepository) Update(token *models.PasswordResetToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockPasswordResetTokenRepository) CountValidByUser(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPasswordResetTokenRepository) InvalidateAllByUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockPasswordResetTokenRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockPasswordResetTokenRepository) DeleteExpired() error {
	args := m.Called()
	return args.Error(0)
}

// MockNotifier mocks the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPasswordResetEmail(to, rawToken, displayName string) error {
	args := m.Called(to, rawToken, displayName)
	return args.Error(0)
}

// MockPasswordHasher mocks the PasswordHasher interface
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Matches(plain, digest string) bool {
	args := m.Called(plain, digest)
	return args.Bool(0)
}

// MockRefreshTokenService mocks the RefreshTokenService interface
type MockRefreshTokenService struct {
	mock.Mock
}

func (m *MockRefreshTokenService) Issue(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockRefreshTokenService) Rotate(refreshToken string) (string, string, error) {
	args := m.Called(refreshToken)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockRefreshTokenService) Revoke(refreshToken string) error {
	args := m.Called(refreshToken)
	return args.Error(0)
}

func (m *MockRefreshTokenService) RevokeAllForUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockRefreshTokenService) IsValid(refreshToken string) (bool, error) {
	args := m.Called(refreshToken)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenService) CleanupExpired() error {
	args := m.Called()
	return args.Error(0)
}

type resetServiceMocks struct {
	repo     *MockPasswordResetTokenRepository
	userRepo *MockUserRepository
	refresh  *MockRefreshTokenService
	notifier *MockNotifier
	hasher   *MockPasswordHasher
	gen      *MockTokenGenerator
}

func newResetService() (PasswordResetService, *resetServiceMocks) {
	m := &resetServiceMocks{
		repo:     new(MockPasswordResetTokenRepository),
		userRepo: new(MockUserRepository),
		refresh:  new(MockRefreshTokenService),
		notifier: new(MockNotifier),
		hasher:   new(MockPasswordHasher),
		gen:      new(MockTokenGenerator),
	}
	svc := NewPasswordResetService(m.repo, m.userRepo, m.refresh, m.notifier, m.hasher, m.gen, testConfig(), testLogger())
	return svc, m
}

func TestRequestReset_UnknownEmailIsSilentNoop(t *testing.T) {
	svc, m := newResetService()

	m.userRepo.On("FindByEmail", "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	err := svc.RequestReset("ghost@example.com")

	assert.NoError(t, err)
	m.repo.AssertNotCalled(t, "Create", mock.Anything)
	m.notifier.AssertNotCalled(t, "SendPasswordResetEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestReset_Success(t *testing.T) {
	svc, m := newResetService()

	user := &models.User{ID: "user-1", Username: "testuser", Email: "test@example.com", DisplayName: "Test User"}
	m.userRepo.On("FindByEmail", "test@example.com").Return(user, nil)
	m.repo.On("CountValidByUser", "user-1").Return(int64(1), nil)
	m.repo.On("InvalidateAllByUser", "user-1").Return(nil)
	m.gen.On("Generate").Return("reset-token", nil)
	m.repo.On("ExistsByToken", "reset-token").Return(false, nil)
	m.notifier.On("SendPasswordResetEmail", "test@example.com", "reset-token", "Test User").Return(nil)
	m.repo.On("Create", mock.MatchedBy(func(rt *models.PasswordResetToken) bool {
		return rt.UserID == "user-1" && rt.Token == "reset-token" && !rt.Used &&
			rt.ExpiresAt.After(time.Now().Add(50*time.Minute)) &&
			rt.ExpiresAt.Before(time.Now().Add(70*time.Minute))
	})).Return(nil)

	err := svc.RequestReset("test@example.com")

	assert.NoError(t, err)
	m.repo.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func TestRequestReset_FallsBackToUsernameWhenNoDisplayName(t *testing.T) {
	svc, m := newResetService()

	user := &models.User{ID: "user-1", Username: "testuser", Email: "test@example.com"}
	m.userRepo.On("FindByEmail", "test@example.com").Return(user, nil)
	m.repo.On("CountValidByUser", "user-1").Return(int64(0), nil)
	m.repo.On("InvalidateAllByUser", "user-1").Return(nil)
	m.gen.On("Generate").Return("reset-token", nil)
	m.repo.On("ExistsByToken", "reset-token").Return(false, nil)
	m.notifier.On("SendPasswordResetEmail", "test@example.com", "reset-token", "testuser").Return(nil)
	m.repo.On("Create", mock.AnythingOfType("*models.PasswordResetToken")).Return(nil)

	err := svc.RequestReset("test@example.com")

	assert.NoError(t, err)
	m.notifier.AssertExpectations(t)
}

func TestRequestReset_RateLimited(t *testing.T) {
	svc, m := newResetService()

	user := &models.User{ID: "user-1", Email: "test@example.com"}
	m.userRepo.On("FindByEmail", "test@example.com").Return(user, nil)
	m.repo.On("CountValidByUser", "user-1").Return(int64(3), nil)

	err := svc.RequestReset("test@example.com")

	assert.ErrorIs(t, err, ErrTooManyResetRequests)
	m.repo.AssertNotCalled(t, "Create", mock.Anything)
	m.repo.AssertNotCalled(t, "InvalidateAllByUser", mock.Anything)
	m.notifier.AssertNotCalled(t, "SendPasswordResetEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestReset_DeliveryFailureLeavesNoToken(t *testing.T) {
	svc, m := newResetService()

	user := &models.User{ID: "user-1", Username: "testuser", Email: "test@example.com"}
	m.userRepo.On("FindByEmail", "test@example.com").Return(user, nil)
	m.repo.On("CountValidByUser", "user-1").Return(int64(0), nil)
	m.repo.On("InvalidateAllByUser", "user-1").Return(nil)
	m.gen.On("Generate").Return("reset-token", nil)
	m.repo.On("ExistsByToken", "reset-token").Return(false, nil)
	m.notifier.On("SendPasswordResetEmail", "test@example.com", "reset-token", "testuser").
		Return(errors.New("smtp down"))

	err := svc.RequestReset("test@example.com")

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	// no usable token may exist after a failed delivery
	m.repo.AssertNotCalled(t, "Create", mock.Anything)
}

// Two requests in succession: the first request's token is marked used by the
// second request's InvalidateAllByUser, so only the newest is consumable.
func TestRequestReset_SecondRequestInvalidatesFirst(t *testing.T) {
	svc, m := newResetService()

	user := &models.User{ID: "user-1", Username: "testuser", Email: "test@example.com"}
	m.userRepo.On("FindByEmail", "test@example.com").Return(user, nil)
	m.repo.On("CountValidByUser", "user-1").Return(int64(0), nil).Once()
	m.repo.On("CountValidByUser", "user-1").Return(int64(1), nil).Once()
	m.repo.On("InvalidateAllByUser", "user-1").Return(nil).Twice()
	m.gen.On("Generate").Return("first-token", nil).Once()
	m.gen.On("Generate").Return("second-token", nil).Once()
	m.repo.On("ExistsByToken", mock.Anything).Return(false, nil)
	m.notifier.On("SendPasswordResetEmail", "test@example.com", mock.Anything, "testuser").Return(nil)
	m.repo.On("Create", mock.AnythingOfType("*models.PasswordResetToken")).Return(nil)

	assert.NoError(t, svc.RequestReset("test@example.com"))
	assert.NoError(t, svc.RequestReset("test@example.com"))

	m.repo.AssertNumberOfCalls(t, "InvalidateAllByUser", 2)

	// the first token is now used=true: the used-filtered lookup misses it
	m.repo.On("FindValidByToken", "first-token").Return(nil, gorm.ErrRecordNotFound)
	err := svc.ResetPassword("first-token", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPassword_Success(t *testing.T) {
	svc, m := newResetService()

	stored := &models.PasswordResetToken{
		ID:        "row-1",
		UserID:    "user-1",
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	user := &models.User{ID: "user-1", Username: "testuser", Password: "old-digest"}

	m.repo.On("FindValidByToken", "reset-token").Return(stored, nil)
	m.userRepo.On("FindByID", "user-1").Return(user, nil)
	m.hasher.On("Hash", "newpassword1").Return("new-digest", nil)
	m.userRepo.On("Update", mock.MatchedBy(func(u *models.User) bool {
		return u.ID == "user-1" && u.Password == "new-digest"
	})).Return(nil)
	m.repo.On("Update", mock.MatchedBy(func(rt *models.PasswordResetToken) bool {
		return rt.ID == "row-1" && rt.Used
	})).Return(nil)
	m.refresh.On("RevokeAllForUser", "user-1").Return(nil)

	err := svc.ResetPassword("reset-token", "newpassword1")

	assert.NoError(t, err)
	m.repo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
	m.refresh.AssertExpectations(t)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	svc, m := newResetService()

	m.repo.On("FindValidByToken", "nope").Return(nil, gorm.ErrRecordNotFound)

	err := svc.ResetPassword("nope", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidResetToken)
	m.hasher.AssertNotCalled(t, "Hash", mock.Anything)
}

func TestResetPassword_ExpiredTokenDeletesRow(t *testing.T) {
	svc, m := newResetService()

	stored := &models.PasswordResetToken{
		ID:        "row-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	m.repo.On("FindValidByToken", "stale").Return(stored, nil)
	m.repo.On("Delete", "row-1").Return(nil)

	err := svc.ResetPassword("stale", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidResetToken)
	m.repo.AssertCalled(t, "Delete", "row-1")
	m.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	m.refresh.AssertNotCalled(t, "RevokeAllForUser", mock.Anything)
}

func TestCleanupExpiredTokens(t *testing.T) {
	svc, m := newResetService()

	m.repo.On("DeleteExpired").Return(nil)

	assert.NoError(t, svc.CleanupExpiredTokens())
	m.repo.AssertExpectations(t)
}
