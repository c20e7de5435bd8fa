package wfatest

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	wfaclient "github.com/wfa-platform/wfaclient"
	"github.com/wfa-platform/wfaclient/session"
)

const tokenTTL = time.Hour

type userRecord struct {
	id        string
	email     string
	role      string
	firstName string
	lastName  string
	phone     string
	hash      passwordHash
}

// Server is an in-process fake backend. Zero value is not usable; use
// [NewServer].
type Server struct {
	srv    *httptest.Server
	secret []byte

	mu            sync.Mutex
	users         map[string]*userRecord
	byEmail       map[string]string
	academies     map[string]wfaclient.Academy
	programs      map[string]wfaclient.Program
	registrations map[string]map[string]bool
	support       map[string]wfaclient.SupportRequest
	supportOwner  map[string]string
	revoked       map[string]bool

	slowNanos atomic.Int64
	requests  atomic.Int64
}

// NewServer starts a fake backend on a loopback listener. Callers must
// Close it.
func NewServer() *Server {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	s := &Server{
		secret:        secret,
		users:         make(map[string]*userRecord),
		byEmail:       make(map[string]string),
		academies:     make(map[string]wfaclient.Academy),
		programs:      make(map[string]wfaclient.Program),
		registrations: make(map[string]map[string]bool),
		support:       make(map[string]wfaclient.SupportRequest),
		supportOwner:  make(map[string]string),
		revoked:       make(map[string]bool),
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("GET /me", s.handleMe)
	mux.HandleFunc("PUT /me", s.handleUpdateMe)

	mux.HandleFunc("GET /academies", s.handleListAcademies)
	mux.HandleFunc("GET /academies/filters", s.handleAcademyFilters)
	mux.HandleFunc("GET /academies/featured", s.handleFeaturedAcademies)
	mux.HandleFunc("GET /academies/{id}", s.handleGetAcademy)
	mux.HandleFunc("POST /academies", s.handleCreateAcademy)
	mux.HandleFunc("PATCH /academies/{id}", s.handleUpdateAcademy)
	mux.HandleFunc("DELETE /academies/{id}", s.handleDeleteAcademy)

	mux.HandleFunc("GET /programs/search", s.handleSearchPrograms)
	mux.HandleFunc("GET /programs/filters", s.handleProgramFilters)
	mux.HandleFunc("GET /programs/recent", s.handleRecentPrograms)
	mux.HandleFunc("GET /programs/{id}", s.handleGetProgram)
	mux.HandleFunc("POST /programs/{id}/register", s.handleRegister)
	mux.HandleFunc("POST /programs/admin/programs", s.handleCreateProgram)
	mux.HandleFunc("PUT /programs/admin/programs/{id}", s.handleUpdateProgram)
	mux.HandleFunc("DELETE /programs/admin/programs/{id}", s.handleDeleteProgram)

	mux.HandleFunc("POST /support", s.handleCreateSupport)
	mux.HandleFunc("GET /support", s.handleListSupport)
	mux.HandleFunc("GET /support/my", s.handleMySupport)
	mux.HandleFunc("POST /support/{id}/reply", s.handleReplySupport)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if d := s.slowNanos.Load(); d > 0 {
			select {
			case <-time.After(time.Duration(d)):
			case <-r.Context().Done():
				return
			}
		}
		mux.ServeHTTP(w, r)
	})
}

// URL is the base URL clients should dial.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the listener down.
func (s *Server) Close() { s.srv.Close() }

// Slow makes every subsequent request sleep for d before being
// handled, or return early when its context is canceled. Slow(0)
// restores normal speed.
func (s *Server) Slow(d time.Duration) { s.slowNanos.Store(int64(d)) }

// Requests reports how many requests the server has received.
func (s *Server) Requests() int64 { return s.requests.Load() }

// SeedUser registers a user directly and returns its public record.
// Roles use the backend's uppercase wire strings ("CLIENT", "ADMIN").
func (s *Server) SeedUser(email, password, role, firstName, lastName string) session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &userRecord{
		id:        uuid.NewString(),
		email:     email,
		role:      role,
		firstName: firstName,
		lastName:  lastName,
		hash:      hashPassword(password),
	}
	s.users[rec.id] = rec
	s.byEmail[email] = rec.id
	return rec.public()
}

// SeedAcademy stores an academy, assigning an id when absent.
func (s *Server) SeedAcademy(a wfaclient.Academy) wfaclient.Academy {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = "active"
	}
	s.academies[a.ID] = a
	return a
}

// SeedProgram stores a program, assigning an id when absent.
func (s *Server) SeedProgram(p wfaclient.Program) wfaclient.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsRegistered = false
	s.programs[p.ID] = p
	return p
}

// TokenFor mints a valid token for a seeded user.
func (s *Server) TokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		panic("wfatest: TokenFor on unseeded email " + email)
	}
	return s.mintToken(id, s.users[id].role, tokenTTL)
}

// RevokeToken makes a previously issued token fail verification with
// 401 from now on.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

func (r *userRecord) public() session.User {
	return session.User{
		ID:        r.id,
		Email:     r.email,
		Role:      r.role,
		FirstName: r.firstName,
		LastName:  r.lastName,
	}
}

// authenticate resolves the bearer token on a request. missing is true
// when no token was presented at all.
func (s *Server) authenticate(r *http.Request) (rec *userRecord, missing bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, true
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[raw] {
		return nil, false
	}
	id, _, err := s.parseToken(raw)
	if err != nil {
		return nil, false
	}
	return s.users[id], false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	body := map[string]any{"message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	writeJSON(w, status, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", nil)
		return false
	}
	return true
}
