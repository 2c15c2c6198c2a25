package model

import "time"

// Role names stored in the `users.role` column.  An account starts as
// RoleUser and is promoted to RoleRecycler the first time it registers a
// recycler profile.  RoleAdmin is assigned out of band and has no
// dedicated endpoints yet.
const (
    RoleUser     = "user"
    RoleRecycler = "recycler"
    RoleAdmin    = "admin"
)

// User represents an account record as stored in the `users` table.
// The json tags are omitted because these structs are used internally
// by the repository layer; handlers define separate response types.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Username     – unique display name.
//  Email        – unique email address, stored lowercased.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of RoleUser, RoleRecycler, RoleAdmin.
//  Phone        – optional contact number.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    Phone        *string   // users.phone (nullable)
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
