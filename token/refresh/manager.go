package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/hr-dashboard/internal/config"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.TokenConfig
}

func NewManager(repo Repo, cfg config.TokenConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token for the user's session, replacing
// any token the user already holds.
func (m *Manager) Create(userID int64, sessionID string) (string, error) {
	if err := m.DeleteForUser(userID); err != nil {
		return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:     tokenStr,
		UserID:    userID,
		SessionID: sessionID,
		Iat:       NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// DeleteForUser removes the user's refresh token if there is one
func (m *Manager) DeleteForUser(userID int64) error {
	existing, err := m.repo.GetByUserID(userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.repo.Delete(existing.Token)
}

// DeleteSession removes the user's refresh token only when it belongs to
// sessionID. It reports whether a token was removed.
func (m *Manager) DeleteSession(userID int64, sessionID string) (bool, error) {
	existing, err := m.repo.GetByUserID(userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if existing.SessionID != sessionID {
		return false, nil
	}
	if err := m.repo.Delete(existing.Token); err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	return true, nil
}

func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
