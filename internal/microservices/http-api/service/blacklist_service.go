package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/repository"
)

// BlacklistService records logged-out access tokens until their natural expiry
// and answers membership queries on the authentication hot path.
type BlacklistService interface {
	Blacklist(accessToken string) error
	IsBlacklisted(accessToken string) (bool, error)
	CleanupOldEntries(olderThan time.Duration) error
}

type blacklistService struct {
	repo repository.BlacklistRepository
}

// NewBlacklistService wires the access-token deny list.
func NewBlacklistService(repo repository.BlacklistRepository) BlacklistService {
	return &blacklistService{repo: repo}
}

// Blacklist stores the token. Blank input is a no-op, not an error: logout
// requests may legitimately carry no access token.
func (s *blacklistService) Blacklist(accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	if err := s.repo.Add(accessToken, time.Now()); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	return nil
}

// IsBlacklisted reports membership. Storage faults propagate: on this path a
// silent "not blacklisted" default would let revoked tokens through.
func (s *blacklistService) IsBlacklisted(accessToken string) (bool, error) {
	if accessToken == "" {
		return false, nil
	}
	blacklisted, err := s.repo.Exists(accessToken)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return blacklisted, nil
}

// CleanupOldEntries purges entries whose blocked token is past its natural
// lifetime (scheduled maintenance entry point).
func (s *blacklistService) CleanupOldEntries(olderThan time.Duration) error {
	return s.repo.DeleteOlderThan(time.Now().Add(-olderThan))
}
