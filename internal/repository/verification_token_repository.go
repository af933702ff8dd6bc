package repository

import (
	"context"
	"database/sql"
	"time"
)

// VerificationTokenRepo stores single-use, purpose-tagged tokens in the
// user_tokens table. A token is looked up by value and purpose jointly and
// deleted on redemption, so exactly one redemption can ever succeed.
type VerificationTokenRepo struct{ DB *sql.DB }

func NewVerificationTokenRepo(db *sql.DB) *VerificationTokenRepo {
	return &VerificationTokenRepo{DB: db}
}

// Store inserts a verification token bound to a user and purpose.
func (r *VerificationTokenRepo) Store(ctx context.Context, token string, userID uint64, tokenType string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_tokens (token, user_id, token_type, expires_at) VALUES (?,?,?,?)",
		token, userID, tokenType, exp)
	return err
}

// Redeem consumes a token and returns the bound user id. The DELETE's
// rows-affected result decides the outcome, so two concurrent redemptions
// of the same token cannot both succeed. Unknown, expired and already
// consumed tokens are indistinguishable: all return ErrTokenInvalid.
func (r *VerificationTokenRepo) Redeem(ctx context.Context, token, tokenType string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM user_tokens WHERE token=? AND token_type=? AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		token, tokenType).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_tokens WHERE token=? AND token_type=?",
		token, tokenType)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// lost the race to a concurrent redemption
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// DeleteForUser removes all of a user's tokens of one purpose. The
// verify-password flow calls this before issuing a fresh code so only the
// latest code is redeemable.
func (r *VerificationTokenRepo) DeleteForUser(ctx context.Context, userID uint64, tokenType string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_tokens WHERE user_id=? AND token_type=?",
		userID, tokenType)
	return err
}
