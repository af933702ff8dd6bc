package repository

import (
	"context"
	"database/sql"

	"github.com/funcprovider/auth-service/internal/model"
)

// ProfileRepo persists the 1:1 profile extension of a user.  The row is
// created lazily on first write; subsequent writes replace every column so
// callers pass the merged profile they want persisted.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get returns the profile for userID, or sql.ErrNoRows when none exists yet.
func (r *ProfileRepo) Get(ctx context.Context, userID uint64) (model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,first_name,last_name,title,function,geo_id,avatar_id,pen_name,location FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Title, &p.Function, &p.GeoID, &p.AvatarID, &p.PenName, &p.Location)
	return p, err
}

// Upsert inserts or replaces the profile row for p.UserID (PK = user_id).
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (user_id,first_name,last_name,title,function,geo_id,avatar_id,pen_name,location)
		 VALUES (?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		 first_name=VALUES(first_name), last_name=VALUES(last_name), title=VALUES(title),
		 function=VALUES(function), geo_id=VALUES(geo_id), avatar_id=VALUES(avatar_id),
		 pen_name=VALUES(pen_name), location=VALUES(location)`,
		p.UserID, p.FirstName, p.LastName, p.Title, p.Function, p.GeoID, p.AvatarID, p.PenName, p.Location)
	return err
}
