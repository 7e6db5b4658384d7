// Package apiclient is the single dispatch point for authenticated backend
// calls. Its transport attaches the session's bearer token and, on a 401,
// refreshes once through the session and replays the request once.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Session is the token owner the transport reports to. The transport never
// writes token storage itself.
type Session interface {
	// AccessToken returns the current access token or "" when anonymous
	AccessToken() string
	// RefreshAccessToken obtains and persists a new token pair. Concurrent
	// callers may share one refresh.
	RefreshAccessToken(ctx context.Context) (string, error)
	// Expire clears the session and sends the user to the login route.
	// accessToken is the token the failed request carried; a session that
	// has moved on to another token since stays as it is.
	Expire(ctx context.Context, accessToken string)
}

type requestState int

const (
	stateNormal requestState = iota
	stateRefreshing
	stateRetried
)

func (s requestState) String() string {
	switch s {
	case stateNormal:
		return "NORMAL"
	case stateRefreshing:
		return "REFRESHING"
	case stateRetried:
		return "RETRIED"
	}
	return "UNKNOWN"
}

var _ http.RoundTripper = (*Transport)(nil)

type Transport struct {
	Base    http.RoundTripper
	Session Session
	Logger  zerolog.Logger
}

func NewTransport(session Session, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Session: session, Logger: log.Logger}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	state := stateNormal
	sent := t.Session.AccessToken()
	resp, err := t.send(req, body, sent)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	state = stateRefreshing
	t.Logger.Debug().Str("state", state.String()).Str("path", req.URL.Path).Msg("access token rejected, refreshing")

	token, refreshErr := t.Session.RefreshAccessToken(req.Context())
	if refreshErr != nil {
		t.Logger.Warn().Err(refreshErr).Str("path", req.URL.Path).Msg("refresh failed, ending session")
		t.Session.Expire(req.Context(), sent)
		// the caller sees the original 401, not the refresh failure
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	state = stateRetried
	t.Logger.Debug().Str("state", state.String()).Str("path", req.URL.Path).Msg("replaying request")
	return t.send(req, body, token)
}

func (t *Transport) send(req *http.Request, body []byte, accessToken string) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Del("Authorization")
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.ContentLength = int64(len(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	return t.base().RoundTrip(out)
}

// bufferBody reads the request body so a replay sends identical bytes
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: buffer request body: %w", err)
	}
	return data, nil
}
