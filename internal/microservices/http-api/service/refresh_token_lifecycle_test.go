package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
)

// memoryRefreshTokenRepo is an in-memory RefreshTokenRepository used to
// exercise whole lifecycles (issue -> logout -> rotate) against real state
// transitions instead of per-call mocks.
type memoryRefreshTokenRepo struct {
	mu      sync.Mutex
	nextSeq int64
	rows    map[string]*models.RefreshToken // by row id
}

func newMemoryRefreshTokenRepo() *memoryRefreshTokenRepo {
	return &memoryRefreshTokenRepo{rows: make(map[string]*models.RefreshToken)}
}

func (r *memoryRefreshTokenRepo) Create(t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.nextSeq++
	cp.Seq = r.nextSeq
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.rows[cp.ID] = &cp
	return nil
}

func (r *memoryRefreshTokenRepo) FindByToken(token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == token {
			cp := *row
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRefreshTokenRepo) ExistsByToken(token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRefreshTokenRepo) Rotate(tokenID, oldToken, newToken string, expiresAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[tokenID]
	if !ok || row.Token != oldToken || row.Revoked {
		return 0, nil
	}
	row.Token = newToken
	row.ExpiresAt = expiresAt
	return 1, nil
}

func (r *memoryRefreshTokenRepo) Revoke(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.Revoked = true
	}
	return nil
}

func (r *memoryRefreshTokenRepo) RevokeAllByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == userID {
			row.Revoked = true
		}
	}
	return nil
}

func (r *memoryRefreshTokenRepo) CountValidByUser(userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.UserID == userID && !row.Revoked && row.ExpiresAt.After(time.Now()) {
			n++
		}
	}
	return n, nil
}

func (r *memoryRefreshTokenRepo) FindValidByUser(userID string) ([]models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RefreshToken
	for _, row := range r.rows {
		if row.UserID == userID && !row.Revoked && row.ExpiresAt.After(time.Now()) {
			out = append(out, *row)
		}
	}
	// insertion order
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Seq < out[i].Seq {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *memoryRefreshTokenRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memoryRefreshTokenRepo) DeleteExpired() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.ExpiresAt.Before(time.Now()) {
			delete(r.rows, id)
		}
	}
	return nil
}

func newLifecycleService(repo *memoryRefreshTokenRepo, userRepo *MockUserRepository, signer *MockTokenSigner) RefreshTokenService {
	return NewRefreshTokenService(repo, userRepo, signer, NewTokenGenerator(), testConfig(), testLogger())
}

// Issue a token, log out with it, and rotation must fail; a fresh issue for
// the same user still succeeds and yields a different identifier.
func TestLifecycle_LogoutThenRotateFails(t *testing.T) {
	repo := newMemoryRefreshTokenRepo()
	mockSigner := new(MockTokenSigner)
	refreshTokens := newLifecycleService(repo, new(MockUserRepository), mockSigner)

	blacklistRepo := new(MockBlacklistRepository)
	blacklistRepo.On("Add", mock.Anything, mock.Anything).Return(nil)
	sessions := NewSessionService(refreshTokens, NewBlacklistService(blacklistRepo), testLogger())

	user := &models.User{ID: "user-1", Username: "testuser"}

	t1, err := refreshTokens.Issue(user)
	assert.NoError(t, err)

	ok, err := refreshTokens.IsValid(t1)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, sessions.Logout(t1, "the-access-token", &fakeAuthContext{}))

	ok, err = refreshTokens.IsValid(t1)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = refreshTokens.Rotate(t1)
	assert.ErrorIs(t, err, ErrRevokedToken)
	mockSigner.AssertNotCalled(t, "Sign", mock.Anything)

	t2, err := refreshTokens.Issue(user)
	assert.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

// After rotation the presented identifier is dead and the replacement works.
func TestLifecycle_RotationRetiresOldIdentifier(t *testing.T) {
	repo := newMemoryRefreshTokenRepo()
	mockUserRepo := new(MockUserRepository)
	mockSigner := new(MockTokenSigner)
	refreshTokens := newLifecycleService(repo, mockUserRepo, mockSigner)

	user := &models.User{ID: "user-1", Username: "testuser"}
	mockUserRepo.On("FindByID", "user-1").Return(user, nil)
	mockSigner.On("Sign", mock.Anything).Return("access", nil)

	t1, err := refreshTokens.Issue(user)
	assert.NoError(t, err)

	_, t2, err := refreshTokens.Rotate(t1)
	assert.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	// old identifier fails lookup, replacement is valid
	_, _, err = refreshTokens.Rotate(t1)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ok, err := refreshTokens.IsValid(t2)
	assert.NoError(t, err)
	assert.True(t, ok)
}

// Issuing at the cap leaves exactly the cap's worth of valid tokens, with the
// oldest one revoked.
func TestLifecycle_CapConvergesOnIssue(t *testing.T) {
	repo := newMemoryRefreshTokenRepo()
	refreshTokens := newLifecycleService(repo, new(MockUserRepository), new(MockTokenSigner))

	user := &models.User{ID: "user-1", Username: "testuser"}

	// all five rows share one created_at timestamp resolution; insertion order
	// alone must decide which token is evicted
	var first string
	for i := 0; i < 5; i++ {
		tok, err := refreshTokens.Issue(user)
		assert.NoError(t, err)
		if i == 0 {
			first = tok
		}
	}

	_, err := refreshTokens.Issue(user)
	assert.NoError(t, err)

	count, err := repo.CountValidByUser("user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)

	ok, err := refreshTokens.IsValid(first)
	assert.NoError(t, err)
	assert.False(t, ok, "oldest token should have been evicted")
}
