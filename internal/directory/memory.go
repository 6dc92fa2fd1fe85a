package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"peopledesk.org/internal/ids"
	"peopledesk.org/internal/rbac"
)

// Memory is an in-process directory for development runs and tests.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*User)}
}

// SeedAccount is a plaintext-password account used to populate a
// development directory.
type SeedAccount struct {
	Email    string
	Name     string
	Role     rbac.Role
	Password string
}

// DemoAccounts are the portal's development sign-ins.
func DemoAccounts() []SeedAccount {
	return []SeedAccount{
		{Email: "admin@company.com", Name: "Admin User", Role: rbac.RoleAdmin, Password: "admin123"},
		{Email: "hr@company.com", Name: "HR Manager", Role: rbac.RoleHRManager, Password: "hr123"},
		{Email: "employee@company.com", Name: "John Employee", Role: rbac.RoleEmployee, Password: "emp123"},
	}
}

// NewSeededMemory builds a directory pre-populated with the given accounts.
func NewSeededMemory(accounts []SeedAccount) (*Memory, error) {
	m := NewMemory()
	for _, acc := range accounts {
		hash, err := HashPassword(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("directory: seed %s: %w", acc.Email, err)
		}
		u := &User{
			Email:        acc.Email,
			Name:         acc.Name,
			Role:         acc.Role,
			PasswordHash: hash,
			Status:       StatusActive,
		}
		if err := m.Create(context.Background(), u); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) Create(_ context.Context, u *User) error {
	email := strings.TrimSpace(strings.ToLower(u.Email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return ErrAlreadyExists
	}
	cp := *u
	cp.Email = email
	if cp.ID == "" {
		cp.ID = ids.New()
	}
	if cp.Status == "" {
		cp.Status = StatusActive
	}
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.users[email] = &cp
	*u = cp
	return nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
