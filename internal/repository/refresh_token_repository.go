package repository

import (
	"context"
	"database/sql"
	"time"
)

// RefreshTokenRepo persists/validates refresh tokens (single 'token_hash'
// column). Tokens are revoked by marking revoked_at rather than deleting,
// so a replayed token stays permanently unusable.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Store inserts a refresh token hash row.
func (r *RefreshTokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Claim atomically validates and revokes a refresh token in one conditional
// UPDATE. Exactly one concurrent caller can win; the loser sees zero rows
// affected and gets ErrTokenInvalid, which also covers unknown, expired and
// previously revoked tokens.
func (r *RefreshTokenRepo) Claim(ctx context.Context, tokenHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrTokenInvalid
	}
	var userID uint64
	err = r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// Revoke marks a token as revoked. Revoking an absent or already revoked
// token is not an error, which keeps logout idempotent.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of a user's active tokens.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
