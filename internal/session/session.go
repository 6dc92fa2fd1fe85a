// Package session owns the visitor session: the login/logout lifecycle, the
// durable per-visitor blob it survives reloads in, and the role check the
// route guard consults.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"peopledesk.org/internal/rbac"
)

// ErrCorruptBlob indicates a persisted blob that cannot be decoded into a
// complete session. Callers treat it as "no session"; it never reaches the
// visitor.
var ErrCorruptBlob = errors.New("session: corrupt persisted blob")

// Session is the in-memory record of an authenticated visitor. It is either
// fully populated or absent (nil); there is no partially-authenticated
// state.
type Session struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     rbac.Role `json:"role"`
	Token    string    `json:"token,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// Valid reports whether every identity field is populated.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	return strings.TrimSpace(s.Email) != "" &&
		strings.TrimSpace(s.Name) != "" &&
		s.Role.Valid()
}

// Encode serializes the session for durable storage.
func Encode(s *Session) ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: refusing to persist incomplete session", ErrCorruptBlob)
	}
	return json.Marshal(s)
}

// Decode parses a persisted blob. Malformed JSON, unknown roles and missing
// identity fields all collapse into ErrCorruptBlob so the caller can fall
// back to an absent session.
func Decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if !s.Valid() {
		return nil, fmt.Errorf("%w: incomplete session", ErrCorruptBlob)
	}
	return &s, nil
}
