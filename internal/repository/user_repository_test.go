package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/funcprovider/auth-service/internal/model"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)")).
		WithArgs("a@x.com", sqlmock.AnyArg(), model.RoleUser, model.StatusPending).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'users.email'"))

	repo := NewUserRepo(db)
	if _, err := repo.Create(context.Background(), "A@X.com", "Passw0rd1", 4); err != ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreateReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)")).
		WithArgs("a@x.com", sqlmock.AnyArg(), model.RoleUser, model.StatusPending).
		WillReturnResult(sqlmock.NewResult(7, 1))

	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), "a@x.com", "Passw0rd1", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
}

func TestUserGetByEmailNormalizes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "status", "created_at"}).
		AddRow(3, "a@x.com", "$2a$04$hash", model.RoleUser, model.StatusActive, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,status,created_at FROM users WHERE email=? LIMIT 1")).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "  A@X.COM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 3 || u.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,status,created_at FROM users WHERE id=? LIMIT 1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	if _, err := repo.GetByID(context.Background(), 99); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUserUpdatePasswordRehashes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	if err := repo.UpdatePassword(context.Background(), 5, "NewPassw0rd", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
