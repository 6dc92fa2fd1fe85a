package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"peopledesk.org/internal/ids"
	"peopledesk.org/internal/rbac"
)

var _ Directory = (*Postgres)(nil)

// Postgres implements Directory over PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an existing database handle.
func NewPostgres(db *sql.DB) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("directory: db handle is required")
	}
	return &Postgres{db: db}, nil
}

// OpenPostgres dials dsn with pool defaults tuned for the portal's modest
// load.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Postgres{db: db}, nil
}

// Close releases the pool.
func (p *Postgres) Close() error { return p.db.Close() }

// DB exposes the handle for readiness probes.
func (p *Postgres) DB() *sql.DB { return p.db }

// EnsureSchema creates the users table when absent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		create table if not exists portal_users (
			id            text primary key,
			email         text not null unique,
			name          text not null,
			role          text not null,
			password_hash text not null,
			status        text not null default 'active',
			created_at    timestamptz not null default now(),
			updated_at    timestamptz not null default now()
		)`)
	if err != nil {
		return fmt.Errorf("directory: ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, u *User) error {
	email := strings.TrimSpace(strings.ToLower(u.Email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	_, err := p.db.ExecContext(ctx,
		`insert into portal_users(id, email, name, role, password_hash, status) values($1,$2,$3,$4,$5,$6)`,
		u.ID, email, u.Name, u.Role.String(), u.PasswordHash, u.Status,
	)
	if err != nil {
		return fmt.Errorf("directory: create user: %w", err)
	}
	u.Email = email
	return nil
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := p.db.QueryRowContext(ctx,
		`select id, email, name, role, password_hash, status, created_at, updated_at
		 from portal_users where email=$1`, email)

	var (
		u       User
		roleRaw string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &roleRaw, &u.PasswordHash, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: find user: %w", err)
	}
	role, err := rbac.Parse(roleRaw)
	if err != nil {
		return nil, fmt.Errorf("directory: user %s: %w", u.ID, err)
	}
	u.Role = role
	return &u, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
