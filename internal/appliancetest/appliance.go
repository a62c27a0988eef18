// Package appliancetest provides an in-memory appliance that speaks the
// shared-folder management API. It exists for tests only.
//
// It enforces the documented contract (0, 33, 34, 606), requires the login
// cookie on every endpoint except /login, and supports fault injection:
// forced HTTP statuses, raw bodies, dropped connections, and session expiry.
package appliancetest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/sharecheck/internal/logger"
	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/envelope"
)

// Default credentials accepted by a new Appliance.
const (
	DefaultUser     = "admin"
	DefaultPassword = "password"

	// BasePath is where the API is mounted, as on the real appliance.
	BasePath = "/cgi-bin/ezs3"

	// CookieName is the session cookie set on login.
	CookieName = "ezs3_session"

	// CodeLoginFailed is returned by /login for bad credentials.
	CodeLoginFailed = 1

	// MaxNameLength is the longest accepted folder name in bytes.
	MaxNameLength = 254
)

// Operations, used to target fault injection.
const (
	OpLogin      = "login"
	OpCreate     = "create"
	OpDelete     = "delete"
	OpEdit       = "edit"
	OpStatistics = "statistics"
)

const reservedGlyphs = `<>:"/\|?*`

// Folder is the stored state of a shared folder.
type Folder struct {
	Name         string
	NFS          bool
	SMB          bool
	ReadOnly     bool
	Mode         string
	AllowedHosts string
}

type faultKind int

const (
	faultStatus faultKind = iota
	faultBody
	faultDrop
	faultDelay
)

type fault struct {
	kind   faultKind
	status int
	body   string
	delay  time.Duration
}

// Appliance is a fake appliance. The zero value is not usable; use New.
type Appliance struct {
	mu            sync.Mutex
	user          string
	password      string
	folders       map[string]*Folder
	sessions      map[string]bool
	faults        map[string][]fault
	requests      map[string]int
	logins        int
	statsBody     string
	statsCategory string
}

// Option configures an Appliance.
type Option func(*Appliance)

// WithCredentials sets the accepted user and password.
func WithCredentials(user, password string) Option {
	return func(a *Appliance) {
		a.user, a.password = user, password
	}
}

// WithStatisticsBody replaces the realtime statistics response body.
func WithStatisticsBody(body string) Option {
	return func(a *Appliance) {
		a.statsBody = body
	}
}

// WithStatisticsCategory sets the one statistics category the appliance
// answers; any other category gets return code 1.
func WithStatisticsCategory(category string) Option {
	return func(a *Appliance) {
		a.statsCategory = category
	}
}

// New creates an Appliance with no folders.
func New(opts ...Option) *Appliance {
	a := &Appliance{
		user:          DefaultUser,
		password:      DefaultPassword,
		folders:       make(map[string]*Folder),
		sessions:      make(map[string]bool),
		faults:        make(map[string][]fault),
		requests:      make(map[string]int),
		statsBody:     DefaultStatisticsBody,
		statsCategory: apiclient.CategoryProtocolAccumulate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start serves a over httptest and closes the server when t ends.
// It returns the API address (server URL plus BasePath).
func (a *Appliance) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv.URL + BasePath
}

// Handler returns the HTTP handler for the appliance.
func (a *Appliance) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route(BasePath, func(r chi.Router) {
		r.With(a.count(OpLogin), a.inject(OpLogin)).Get(apiclient.PathLogin, a.handleLogin)

		authed := func(op string) chi.Router {
			return r.With(a.count(op), a.requireSession, a.inject(op))
		}
		authed(OpCreate).Get(apiclient.PathCreateFolder, a.handleCreate)
		authed(OpDelete).Get(apiclient.PathDeleteFolder, a.handleDelete)
		authed(OpEdit).Post(apiclient.PathEditFolder, a.handleEdit)
		authed(OpStatistics).Get(apiclient.PathRealtimeStatistic, a.handleStatistics)
	})
	return r
}

// FailNext makes the next call to op answer with the given HTTP status.
func (a *Appliance) FailNext(op string, status int) {
	a.push(op, fault{kind: faultStatus, status: status})
}

// RespondNext makes the next call to op answer 200 with body, bypassing the
// contract.
func (a *Appliance) RespondNext(op, body string) {
	a.push(op, fault{kind: faultBody, body: body})
}

// DropNext makes the next n calls to op break the connection mid-response.
func (a *Appliance) DropNext(op string, n int) {
	for i := 0; i < n; i++ {
		a.push(op, fault{kind: faultDrop})
	}
}

// DelayNext makes the next call to op wait d before being handled.
func (a *Appliance) DelayNext(op string, d time.Duration) {
	a.push(op, fault{kind: faultDelay, delay: d})
}

// ExpireSessions forgets every issued session cookie.
func (a *Appliance) ExpireSessions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.sessions)
}

// Logins returns the number of successful logins.
func (a *Appliance) Logins() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logins
}

// Requests returns how many calls reached op, faults included.
func (a *Appliance) Requests(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[op]
}

// Folders returns the names of existing folders, sorted.
func (a *Appliance) Folders() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.folders))
	for n := range a.folders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Folder returns a copy of the named folder.
func (a *Appliance) Folder(name string) (Folder, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.folders[name]
	if !ok {
		return Folder{}, false
	}
	return *f, true
}

// Seed creates a folder directly, without a request.
func (a *Appliance) Seed(f Folder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := f
	a.folders[f.Name] = &c
}

func (a *Appliance) push(op string, f fault) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.faults[op] = append(a.faults[op], f)
}

func (a *Appliance) pop(op string) (fault, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	q := a.faults[op]
	if len(q) == 0 {
		return fault{}, false
	}
	a.faults[op] = q[1:]
	return q[0], true
}

// count records every call routed to op, including ones rejected for a
// missing session.
func (a *Appliance) count(op string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.mu.Lock()
			a.requests[op]++
			a.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

// inject applies the next queued fault for op, if any.
func (a *Appliance) inject(op string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f, ok := a.pop(op)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			switch f.kind {
			case faultStatus:
				http.Error(w, http.StatusText(f.status), f.status)
			case faultBody:
				_, _ = w.Write([]byte(f.body))
			case faultDrop:
				hj, ok := w.(http.Hijacker)
				if !ok {
					panic("appliancetest: response writer cannot be hijacked")
				}
				conn, buf, err := hj.Hijack()
				if err != nil {
					return
				}
				// Promise a body and hang up halfway so the client sees the
				// failure instead of silently retrying on a fresh connection.
				_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 64\r\n\r\n<response>")
				_ = buf.Flush()
				_ = conn.Close()
			case faultDelay:
				select {
				case <-time.After(f.delay):
				case <-r.Context().Done():
					return
				}
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (a *Appliance) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		a.mu.Lock()
		ok := err == nil && a.sessions[c.Value]
		a.mu.Unlock()
		if !ok {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Appliance) handleLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("user_id") != a.user || q.Get("password") != a.password {
		writeXML(w, CodeLoginFailed)
		return
	}

	token := newToken()
	a.mu.Lock()
	a.sessions[token] = true
	a.logins++
	a.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: token, Path: "/", HttpOnly: true})
	writeXML(w, envelope.CodeSuccess)
}

func (a *Appliance) handleCreate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("name")
	if !validName(raw) {
		writeXML(w, envelope.CodeInvalidName)
		return
	}
	name := strings.TrimSpace(raw)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.folders[name]; exists {
		writeXML(w, envelope.CodeDuplicateName)
		return
	}
	a.folders[name] = &Folder{
		Name:     name,
		NFS:      q.Get("nfs") == "true",
		SMB:      q.Get("smb") == "true",
		ReadOnly: q.Get("read_only") == "true",
		Mode:     q.Get("mode"),
	}
	writeXML(w, envelope.CodeSuccess)
}

func (a *Appliance) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.folders[name]; !exists {
		writeXML(w, envelope.CodeNotFound)
		return
	}
	delete(a.folders, name)
	writeXML(w, envelope.CodeSuccess)
}

func (a *Appliance) handleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostForm.Get("name"))

	a.mu.Lock()
	defer a.mu.Unlock()
	f, exists := a.folders[name]
	if !exists {
		writeXML(w, envelope.CodeNotFound)
		return
	}
	f.NFS = r.PostForm.Get("nfs") == "true"
	f.SMB = r.PostForm.Get("smb") == "true"
	f.ReadOnly = r.PostForm.Get("read_only") == "true"
	f.Mode = r.PostForm.Get("mode")
	// Host rules are stored verbatim; the appliance does not validate octets.
	if hosts, ok := r.PostForm["nfs_allowed_hosts"]; ok {
		f.AllowedHosts = strings.Join(hosts, ",")
	}
	writeXML(w, envelope.CodeSuccess)
}

func (a *Appliance) handleStatistics(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	body, category := a.statsBody, a.statsCategory
	a.mu.Unlock()
	if r.URL.Query().Get("categories") != category {
		writeJSON(w, `{"return_code": 1}`)
		return
	}
	writeJSON(w, body)
}

func validName(name string) bool {
	if strings.TrimSpace(name) == "" || len(name) > MaxNameLength {
		return false
	}
	return !strings.ContainsAny(name, reservedGlyphs)
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// XMLBody returns the XML envelope carrying code.
func XMLBody(code int) string {
	return fmt.Sprintf("<response><API_return><return_code>%d</return_code></API_return></response>", code)
}

func writeXML(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write([]byte(XMLBody(code)))
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("Fake appliance request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.DurationMs(logger.Duration(start)))
	})
}
