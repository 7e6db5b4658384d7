package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/hr-dashboard/internal/errors"
	"github.com/jrsteele09/hr-dashboard/token/refresh"
	"github.com/jrsteele09/hr-dashboard/users"
	pkgerrors "github.com/pkg/errors"
)

const (
	TokenTypeBearer = "bearer"

	DefaultIssuer            = "hr-dashboard"
	DefaultAccessTokenExpiry = 15 * time.Minute
)

// Claims carried by an access token. Subject is the user ID; SessionID ties
// the token to the refresh token issued with it.
type Claims struct {
	Username  string `json:"username"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user ID
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidToken, "subject %q", c.Subject)
	}
	return id, nil
}

// Response is the body of a successful token or refresh call
type Response struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Manager issues, verifies and revokes the backend's token pairs
type Manager struct {
	signer            Signer
	issuer            string
	refresh           *refresh.Manager
	userRepo          users.UserRepo
	revokedCache      RevokedTokenCache
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func NewManager(signer Signer, refreshManager *refresh.Manager, userRepo users.UserRepo, opts ...ManagerOption) *Manager {
	m := &Manager{
		signer:            signer,
		issuer:            DefaultIssuer,
		refresh:           refreshManager,
		userRepo:          userRepo,
		revokedCache:      NewInMemoryRevokedTokenCache(),
		accessTokenExpiry: DefaultAccessTokenExpiry,
		nowFunc:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateAccessToken signs a new access token for the user's session
func (m *Manager) CreateAccessToken(user *users.User, sessionID string) (string, error) {
	now := m.nowFunc()
	claims := &Claims{
		Username:  user.Username,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", pkgerrors.Wrap(err, "Manager.CreateAccessToken")
	}
	return signed, nil
}

// IssuePair starts a new session for the user. The user's previous refresh
// token stops working.
func (m *Manager) IssuePair(user *users.User) (*Response, error) {
	return m.issue(user, uuid.NewString())
}

func (m *Manager) issue(user *users.User, sessionID string) (*Response, error) {
	access, err := m.CreateAccessToken(user, sessionID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.refresh.Create(user.ID, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "Manager.IssuePair")
	}
	return &Response{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(m.accessTokenExpiry / time.Second),
	}, nil
}

// Verify parses and validates an access token
func (m *Manager) Verify(raw string) (*Claims, error) {
	claims, err := m.parse(raw, true)
	if err != nil {
		return nil, err
	}
	if m.revokedCache.IsRevoked(claims.ID) {
		return nil, errors.ErrTokenRevoked
	}
	return claims, nil
}

func (m *Manager) parse(raw string, validateExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.nowFunc),
	}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, m.signer.GetVerificationKey, opts...)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errors.ErrTokenExpired
	default:
		return nil, errors.Wrapf(errors.ErrInvalidToken, "%v", err)
	}
}

// Refresh rotates a refresh token into a new pair
func (m *Manager) Refresh(refreshToken string) (*Response, error) {
	stored, err := m.refresh.Get(refreshToken)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}
	if m.refresh.IsExpired(stored) {
		_ = m.refresh.Delete(refreshToken)
		return nil, errors.ErrRefreshTokenExpired
	}

	user, err := m.userRepo.GetByID(stored.UserID)
	if err != nil {
		_ = m.refresh.Delete(refreshToken)
		return nil, errors.ErrInvalidRefreshToken
	}
	if user.Blocked {
		return nil, errors.ErrUserBlocked
	}
	return m.issue(user, stored.SessionID)
}

// Revoke invalidates an access token and the refresh token of the same
// session. Expired tokens are accepted so a late logout still clears the
// refresh token; a refresh token from a later login is left alone.
func (m *Manager) Revoke(raw string) error {
	claims, err := m.parse(raw, false)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	if claims.ExpiresAt != nil && claims.ID != "" {
		if err := m.revokedCache.Add(claims.ID, claims.ExpiresAt.Time); err != nil {
			return pkgerrors.Wrap(err, "Manager.Revoke")
		}
	}
	if _, err := m.refresh.DeleteSession(userID, claims.SessionID); err != nil {
		return pkgerrors.Wrap(err, "Manager.Revoke")
	}
	return nil
}

// CleanupRevokedTokens drops revocations for tokens that have expired anyway
func (m *Manager) CleanupRevokedTokens() {
	m.revokedCache.Cleanup()
}
