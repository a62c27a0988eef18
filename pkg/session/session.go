// Package session owns the authenticated session shared by every request in
// a run. The first caller logs in; concurrent callers wait for that single
// login and share its result.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/marmos91/sharecheck/internal/logger"
	"github.com/marmos91/sharecheck/internal/telemetry"
	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/envelope"
)

// Credential identifies the appliance account used for a run.
type Credential struct {
	APIAddress string
	UserID     string
	Password   string
}

// Session is an established login. It is immutable once returned.
type Session struct {
	BaseAddress string
	Cookies     []*http.Cookie
	CreatedAt   time.Time
}

// Client returns a copy of base that sends the session cookies.
func (s *Session) Client(base *apiclient.Client) *apiclient.Client {
	return base.WithCookies(s.Cookies)
}

// Authenticator performs the login request. *apiclient.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, userID, password string) (*apiclient.RawResponse, error)
}

// AuthenticationError reports a failed login. It is fatal to a run.
type AuthenticationError struct {
	UserID string
	// Code is the appliance return code, or -1 when no envelope was decoded.
	Code int
	Err  error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login as %q failed: %v", e.UserID, e.Err)
	}
	return fmt.Sprintf("login as %q failed: return code %d", e.UserID, e.Code)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err is (or wraps) an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// Manager lazily establishes and caches the session.
type Manager struct {
	auth Authenticator
	cred Credential

	group singleflight.Group

	mu      sync.Mutex
	current *Session
	logins  int
}

// New creates a Manager. No request is made until Get is called.
func New(auth Authenticator, cred Credential) *Manager {
	return &Manager{auth: auth, cred: cred}
}

// Get returns the current session, logging in if there is none.
func (m *Manager) Get(ctx context.Context) (*Session, error) {
	if s := m.cached(); s != nil {
		return s, nil
	}

	v, err, shared := m.group.Do("login", func() (any, error) {
		// A login that completed between cached() and Do is reused.
		if s := m.cached(); s != nil {
			return s, nil
		}
		s, err := m.login(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.current = s
		m.logins++
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.DebugCtx(ctx, "Joined in-flight login")
	}
	return v.(*Session), nil
}

// Invalidate drops s if it is still the cached session. A caller holding a
// stale session cannot discard a newer one.
func (m *Manager) Invalidate(s *Session) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == s {
		m.current = nil
		logger.Debug("Session invalidated", logger.KeyUser, m.cred.UserID)
	}
}

// Logins returns how many logins this manager has completed.
func (m *Manager) Logins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logins
}

func (m *Manager) cached() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) login(ctx context.Context) (*Session, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanLogin)
	defer span.End()

	start := time.Now()
	fail := func(code int, err error) (*Session, error) {
		aerr := &AuthenticationError{UserID: m.cred.UserID, Code: code, Err: err}
		telemetry.RecordError(ctx, aerr)
		logger.ErrorCtx(ctx, "Login failed",
			logger.KeyAPI, m.cred.APIAddress,
			logger.KeyUser, m.cred.UserID,
			logger.Err(aerr))
		return nil, aerr
	}

	raw, err := m.auth.Login(ctx, m.cred.UserID, m.cred.Password)
	if err != nil {
		return fail(-1, err)
	}

	out, err := envelope.Decode(raw.Body, envelope.ShapeXML)
	if err != nil {
		return fail(-1, err)
	}
	telemetry.SetAttributes(ctx, telemetry.ReturnCode(out.Code))
	if !out.OK() {
		return fail(out.Code, nil)
	}

	logger.InfoCtx(ctx, "Logged in",
		logger.KeyAPI, m.cred.APIAddress,
		logger.KeyUser, m.cred.UserID,
		logger.DurationMs(logger.Duration(start)))

	return &Session{
		BaseAddress: m.cred.APIAddress,
		Cookies:     raw.Cookies,
		CreatedAt:   time.Now(),
	}, nil
}
