package directory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"peopledesk.org/internal/rbac"
)

func TestPostgresFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "status", "created_at", "updated_at"}).
		AddRow("u-1", "hr@company.com", "HR Manager", "HR Manager", "hash", StatusActive, now, now)
	mock.ExpectQuery("select id, email, name, role, password_hash, status, created_at, updated_at").
		WithArgs("hr@company.com").
		WillReturnRows(rows)

	store, err := NewPostgres(db)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	u, err := store.FindByEmail(context.Background(), "  HR@Company.com ")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.Role != rbac.RoleHRManager {
		t.Fatalf("unexpected role: %s", u.Role)
	}
	if u.Email != "hr@company.com" {
		t.Fatalf("unexpected email: %s", u.Email)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresFindByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, email, name, role, password_hash").
		WithArgs("nobody@company.com").
		WillReturnError(sql.ErrNoRows)

	store, err := NewPostgres(db)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if _, err := store.FindByEmail(context.Background(), "nobody@company.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresFindByEmailUnknownRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "status", "created_at", "updated_at"}).
		AddRow("u-1", "x@company.com", "X", "superuser", "hash", StatusActive, now, now)
	mock.ExpectQuery("select id, email, name, role, password_hash").
		WithArgs("x@company.com").
		WillReturnRows(rows)

	store, err := NewPostgres(db)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if _, err := store.FindByEmail(context.Background(), "x@company.com"); !errors.Is(err, rbac.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into portal_users").
		WithArgs(sqlmock.AnyArg(), "new@company.com", "New Hire", "Employee", "hash", StatusActive).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store, err := NewPostgres(db)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	u := &User{Email: "New@Company.com", Name: "New Hire", Role: rbac.RoleEmployee, PasswordHash: "hash"}
	if err := store.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
