// Package plugtest provides an in-process stand-in for the plug.dj endpoints
// used by the login flows.
//
// A Server routes the four endpoints with gorilla/mux and keeps its sessions
// in memory. Client returns a transport that serves requests straight from
// that router, so tests and offline runs need no network:
//
//	srv := plugtest.NewServer()
//	srv.AddUser("me@example.com", "hunter2")
//	res, err := pluglogin.Login(ctx, "me@example.com", "hunter2", &pluglogin.Options{
//	    Host:   plugtest.Host,
//	    Client: srv.Client(),
//	})
//
// Server is also an http.Handler and can be mounted on a real listener.
package plugtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Host is a placeholder base URL for use with Client. The host part is never
// resolved.
const Host = "https://plug.test"

// Endpoint paths served by the stub.
const (
	InitPath  = "/_/mobile/init"
	GuestPath = "/plug-socket-test"
	LoginPath = "/_/auth/login"
	TokenPath = "/_/auth/token"
)

// MaintenancePage is served by every endpoint while maintenance is on.
const MaintenancePage = `<!DOCTYPE html>
<html>
<head><title>maintenance mode</title></head>
<body>plug.dj is down for maintenance.</body>
</html>`

type session struct {
	csrf  string
	email string
}

// Server is a fake plug.dj. The zero value is not usable; call NewServer.
type Server struct {
	router *mux.Router

	mu           sync.Mutex
	users        map[string]string
	sessions     map[string]*session
	hits         map[string]int
	cookies      map[string]string
	maintenance  bool
	loginSession string
	token        string
}

// NewServer returns a stub with no users, maintenance off.
func NewServer() *Server {
	s := &Server{
		users:    make(map[string]string),
		sessions: make(map[string]*session),
		hits:     make(map[string]int),
		cookies:  make(map[string]string),
	}

	r := mux.NewRouter()
	r.Use(s.track)
	r.HandleFunc(InitPath, s.handleInit).Methods(http.MethodGet)
	r.HandleFunc(GuestPath, s.handleGuest).Methods(http.MethodGet)
	r.HandleFunc(LoginPath, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(TokenPath, s.handleToken).Methods(http.MethodGet)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers credentials accepted by the login endpoint.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// SetMaintenance toggles maintenance mode.
func (s *Server) SetMaintenance(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance = on
}

// SetLoginSession fixes the session value issued by a successful login.
// By default a new one is generated for every login.
func (s *Server) SetLoginSession(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginSession = value
}

// SetToken fixes the value returned by the token endpoint.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastCookie returns the Cookie header of the latest request to path.
func (s *Server) LastCookie(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookies[path]
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.cookies[r.URL.Path] = r.Header.Get("Cookie")
		maintenance := s.maintenance
		s.mu.Unlock()

		if maintenance {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, MaintenancePage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	id, csrf := newSessionID(), newCSRF()

	s.mu.Lock()
	s.sessions[id] = &session{csrf: csrf}
	s.mu.Unlock()

	setSessionCookie(w, id)
	writeJSON(w, http.StatusOK, "ok", map[string]any{"c": csrf, "t": "mobile"})
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	id := newSessionID()

	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()

	setSessionCookie(w, id)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html><html><head><title>plug.dj socket test</title></head><body>ok</body></html>")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CSRF     string `json:"csrf"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "requestError", "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[requestSession(r)]
	if !ok || sess.csrf == "" || sess.csrf != req.CSRF {
		writeJSON(w, http.StatusForbidden, "invalidCSRF", "invalid csrf token")
		return
	}
	// A CSRF token authorizes a single attempt.
	sess.csrf = ""

	if password, ok := s.users[req.Email]; !ok || password != req.Password {
		writeJSON(w, http.StatusUnauthorized, "badLogin", "bad credentials")
		return
	}

	id := s.loginSession
	if id == "" {
		id = newSessionID()
	}
	s.sessions[id] = &session{email: req.Email}

	setSessionCookie(w, id)
	writeJSON(w, http.StatusOK, "ok")
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := requestSession(r)
	if _, ok := s.sessions[id]; !ok {
		writeJSON(w, http.StatusUnauthorized, "notAuthorized", "not authorized")
		return
	}

	token := s.token
	if token == "" {
		token = "token-" + strings.ReplaceAll(id, "|", "-")
	}
	writeJSON(w, http.StatusOK, "ok", token)
}

// requestSession reads the session cookie without unescaping it.
func requestSession(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("Cookie"), ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == "session" {
			return value
		}
	}
	return ""
}

// setSessionCookie writes the header by hand: plug.dj session values carry a
// raw "|".
func setSessionCookie(w http.ResponseWriter, id string) {
	w.Header().Add("Set-Cookie", "session="+id+"; Path=/; HttpOnly")
}

func writeJSON(w http.ResponseWriter, code int, status string, data ...any) {
	if data == nil {
		data = []any{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"data":   data,
		"meta":   map[string]any{},
	})
}

// newSessionID mimics plug.dj's "<uuid>|<signature>" session format.
func newSessionID() string {
	return uuid.New().String() + "|" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}

func newCSRF() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
