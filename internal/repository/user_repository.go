package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/funcprovider/auth-service/internal/model"
	"github.com/funcprovider/auth-service/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a bcrypt hash and default role/status and
// returns its ID. Duplicate emails surface as ErrEmailExists; the unique
// constraint resolves the concurrent create race.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	return r.insert(ctx, email, hash, model.RoleUser, model.StatusPending)
}

// CreateSocial inserts an auto-active user with a placeholder password hash.
// Social accounts have no local password; the placeholder is a hash of a
// random token so no input can ever match it.
func (r *UserRepo) CreateSocial(ctx context.Context, email string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	random, err := utils.RandomHex(24)
	if err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(random, cost)
	if err != nil {
		return 0, err
	}
	return r.insert(ctx, email, hash, model.RoleUser, model.StatusActive)
}

func (r *UserRepo) insert(ctx context.Context, email, hash, role, status string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)",
		email, hash, role, status)
	if err != nil {
		// MySQL error 1062 = duplicate entry for the unique email index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. The password hash is
// included; callers returning users to clients must use the json
// projection, which never serializes it.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,status,created_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,status,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

// UpdateStatus sets users.status for the given user.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=? WHERE id=?", status, id)
	return err
}

// UpdateRole sets users.role for the given user.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", role, id)
	return err
}

// UpdatePassword re-hashes and stores a new password for the given user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}
