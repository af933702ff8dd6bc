package model

import "time"

// Role values stored in users.role.  Roles are coarse authorization labels;
// protected routes compare against the user's current role, never the value
// embedded in an access token.
const (
    RoleUser      = "user"
    RoleAdmin     = "admin"
    RoleModerator = "moderator"
    RolePremium   = "premium"
    RoleProvider  = "provider"
)

// Status values stored in users.status.  A user is created pending, becomes
// active through email verification (or social login), and may be suspended
// administratively.  Only active users can authenticate.
const (
    StatusPending   = "pending"
    StatusActive    = "active"
    StatusSuspended = "suspended"
)

// ValidRole reports whether role is one of the enumerated role values.
func ValidRole(role string) bool {
    switch role {
    case RoleUser, RoleAdmin, RoleModerator, RolePremium, RoleProvider:
        return true
    }
    return false
}

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags define the public projection returned by handlers; PasswordHash is
// never serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password (placeholder hash for social-only accounts).
//  Role         – authorization label (user/admin/moderator/premium/provider).
//  Status       – account lifecycle state (pending/active/suspended).
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`            // users.id
    Email        string    `json:"email"`         // users.email
    PasswordHash string    `json:"-"`             // users.password_hash, never exposed
    Role         string    `json:"role"`          // users.role
    Status       string    `json:"status"`        // users.status
    CreatedAt    time.Time `json:"created_at"`    // users.created_at
}

// Profile is the 1:1 extension of a User, keyed by user_id.  All fields are
// optional; registration writes a stub row and later writes upsert it.
// Social accounts get their row on first sign-in.
type Profile struct {
    UserID    uint64  `json:"user_id"`              // profiles.user_id (PK)
    FirstName *string `json:"first_name,omitempty"` // profiles.first_name
    LastName  *string `json:"last_name,omitempty"`  // profiles.last_name
    Title     *string `json:"title,omitempty"`      // profiles.title
    Function  *string `json:"function,omitempty"`   // profiles.function
    GeoID     *uint64 `json:"geo_id,omitempty"`     // profiles.geo_id
    AvatarID  *uint64 `json:"avatar_id,omitempty"`  // profiles.avatar_id
    PenName   *string `json:"pen_name,omitempty"`   // profiles.pen_name
    Location  *string `json:"location,omitempty"`   // profiles.location
}

// Verification token purposes stored in user_tokens.token_type.  A token is
// looked up by value and purpose jointly, and is deleted on redemption.
const (
    TokenEmailVerification = "email_verification"
    TokenPasswordReset     = "password_reset"
    TokenVerifyPassword    = "verify_password"
)
