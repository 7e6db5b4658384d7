package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/hr-dashboard/users"
)

type Phase int

const (
	Bootstrapping Phase = iota
	Authenticated
	Anonymous
)

func (p Phase) String() string {
	switch p {
	case Bootstrapping:
		return "bootstrapping"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// State is a read-only snapshot handed to callers and listeners
type State struct {
	Phase           Phase
	User            *users.User
	IsAuthenticated bool
	IsLoading       bool
	// AccessExpiry is read from the access token's exp claim without
	// verification. Zero when unknown.
	AccessExpiry time.Time
}

// Result is returned by the mutating operations. Error holds the text a form
// shows inline; Cause keeps the underlying error for callers that branch on it.
type Result struct {
	Success bool
	Error   string
	Cause   error
}

func ok() Result {
	return Result{Success: true}
}

func failed(message string, cause error) Result {
	return Result{Error: message, Cause: cause}
}

func accessExpiry(accessToken string) time.Time {
	if accessToken == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
