// Package authd implements the authentication endpoint the portal exchanges
// credentials with. The portal treats it strictly as an external
// collaborator over POST /auth/login.
package authd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"peopledesk.org/internal/audit"
	"peopledesk.org/internal/directory"
)

const msgInvalidCredentials = "Invalid credentials"

// Server answers the login exchange from a user directory.
type Server struct {
	mux    *http.ServeMux
	dir    directory.Directory
	issuer *TokenIssuer
}

// NewServer wires the exchange handler. Both dependencies are required.
func NewServer(dir directory.Directory, issuer *TokenIssuer) (*Server, error) {
	if dir == nil {
		return nil, errors.New("authd: directory is required")
	}
	if issuer == nil {
		return nil, errors.New("authd: token issuer is required")
	}
	s := &Server{
		mux:    http.NewServeMux(),
		dir:    dir,
		issuer: issuer,
	}
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/readyz", s.handleReadyz)
	return s, nil
}

// Handler returns the HTTP surface.
func (s *Server) Handler() http.Handler { return s.mux }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Success bool       `json:"success"`
	User    *loginUser `json:"user,omitempty"`
	Token   string     `json:"token,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, loginResponse{Success: false, Error: "method not allowed"})
		return
	}

	var req loginRequest
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	defer body.Close()
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, loginResponse{Success: false, Error: "request body is required"})
			return
		}
		writeJSON(w, http.StatusBadRequest, loginResponse{Success: false, Error: "malformed request body"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		s.reject(w, r, email, "missing_fields")
		return
	}

	user, err := s.dir.FindByEmail(r.Context(), email)
	if errors.Is(err, directory.ErrNotFound) {
		s.reject(w, r, email, "unknown_account")
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, loginResponse{Success: false, Error: "authentication error"})
		return
	}
	if user.Status != directory.StatusActive {
		s.reject(w, r, email, "account_disabled")
		return
	}
	if err := directory.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		s.reject(w, r, email, "bad_password")
		return
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, loginResponse{Success: false, Error: "authentication error"})
		return
	}

	_ = audit.LogEvent(r.Context(), "authd.login.success", map[string]any{
		"email": user.Email,
		"role":  user.Role.String(),
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		User:    &loginUser{Email: user.Email, Name: user.Name, Role: user.Role.String()},
		Token:   token,
	})
}

// reject answers every credential failure identically so the response does
// not leak whether the account exists.
func (s *Server) reject(w http.ResponseWriter, r *http.Request, email, reason string) {
	_ = audit.LogEvent(r.Context(), "authd.login.failure", map[string]any{
		"email":  email,
		"reason": reason,
	})
	writeJSON(w, http.StatusUnauthorized, loginResponse{Success: false, Error: msgInvalidCredentials})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "peopledesk-authd"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.dir.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
