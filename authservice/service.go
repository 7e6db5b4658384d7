// Package authservice builds the backend's authentication requests.
//
// The service is stateless and talks through a plain http.Client, never the
// refreshing client, so a failing refresh can not recurse into itself.
package authservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/hr-dashboard/users"
	"golang.org/x/oauth2"
)

const (
	TokenPath    = "/auth/token"
	RegisterPath = "/auth/register"
	RefreshPath  = "/auth/refresh"
	LogoutPath   = "/auth/logout"
	MePath       = "/auth/me"

	StatusSuccess = "success"

	maxBodyBytes = 1 << 20
)

// Service issues auth calls against one backend
type Service struct {
	baseURL string
	client  *http.Client
}

type Option func(*Service)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

func New(baseURL string, opts ...Option) *Service {
	s := &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) BaseURL() string {
	return s.baseURL
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

func (t tokenResponse) token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "bearer"
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type meResponse struct {
	Status  string      `json:"status"`
	Data    *users.User `json:"data"`
	Message string      `json:"message,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Login exchanges credentials for a token pair
func (s *Service) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	form := url.Values{"username": {username}, "password": {password}}

	var body tokenResponse
	if err := s.postForm(ctx, TokenPath, form, ErrInvalidCredentials, &body); err != nil {
		return nil, err
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		return nil, fmt.Errorf("login: %w: missing tokens", ErrUnexpectedResponse)
	}
	return body.token(), nil
}

// Register creates an account. It does not establish a session.
func (s *Service) Register(ctx context.Context, username, password, name string) (bool, error) {
	form := url.Values{"username": {username}, "password": {password}, "name": {name}}

	var body registerResponse
	if err := s.postForm(ctx, RegisterPath, form, ErrValidation, &body); err != nil {
		return false, err
	}
	if !body.Success {
		return false, newAPIError(http.StatusOK, body.Message, ErrValidation)
	}
	return true, nil
}

// Refresh trades a refresh token for a new pair. A response without a
// rotated refresh token keeps the presented one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	form := url.Values{"refresh_token": {refreshToken}}

	var body tokenResponse
	if err := s.postForm(ctx, RefreshPath, form, ErrRefreshInvalid, &body); err != nil {
		return nil, err
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("refresh: %w: missing access token", ErrUnexpectedResponse)
	}
	if body.RefreshToken == "" {
		body.RefreshToken = refreshToken
	}
	return body.token(), nil
}

// Logout asks the backend to revoke the session's tokens
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	req, err := s.newRequest(ctx, http.MethodPost, LogoutPath, nil)
	if err != nil {
		return err
	}
	setBearer(req, accessToken)
	return s.do(req, nil, nil)
}

// Me fetches the profile of the token's owner
func (s *Service) Me(ctx context.Context, accessToken string) (*users.User, error) {
	req, err := s.newRequest(ctx, http.MethodGet, MePath, nil)
	if err != nil {
		return nil, err
	}
	setBearer(req, accessToken)

	var body meResponse
	if err := s.do(req, ErrProfileFetchFailed, &body); err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr):
			if !errors.Is(err, ErrProfileFetchFailed) {
				apiErr.kinds = append([]error{ErrProfileFetchFailed}, apiErr.kinds...)
			}
		case errors.Is(err, ErrUnexpectedResponse):
			return nil, fmt.Errorf("%w: %w", ErrProfileFetchFailed, err)
		}
		return nil, err
	}
	if body.Status != StatusSuccess || body.Data == nil {
		return nil, newAPIError(http.StatusOK, body.Message, ErrProfileFetchFailed)
	}
	return body.Data, nil
}

func setBearer(req *http.Request, accessToken string) {
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

func (s *Service) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("authservice: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *Service) postForm(ctx context.Context, path string, form url.Values, clientErr error, out any) error {
	req, err := s.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, clientErr, out)
}

// do sends req and decodes a 2xx body into out. 4xx responses become an
// APIError of kind clientErr, 5xx of kind ErrServer.
func (s *Service) do(req *http.Request, clientErr error, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := clientErr
		if resp.StatusCode >= http.StatusInternalServerError {
			kind = ErrServer
		}
		return newAPIError(resp.StatusCode, errorMessage(data), kind)
	}

	if out == nil || len(data) == 0 {
		if out != nil {
			return ErrUnexpectedResponse
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Detail
}
