package refresh

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server side record behind an opaque refresh
// token. The client only ever sees Token. SessionID stays the same across
// rotations of one login.
type StoredRefreshToken struct {
	Token     string
	UserID    int64
	SessionID string
	Iat       time.Time
}

// Repo stores refresh tokens keyed by the token string. A user holds at
// most one refresh token at a time.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID int64) (*StoredRefreshToken, error)
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
