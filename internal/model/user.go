package model

import "time"

// User represents an application user record as stored in the `users`
// table.  RefNo is the unique identifier-of-record (badge/registration
// number) stamped onto reservations made by the user; FullName is the
// display name.  Role is either RoleAdmin or RoleMember; admins are
// the privileged actors of the reservation core.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address used for login.
//  PasswordHash – bcrypt hashed password.
//  RefNo        – unique identifier-of-record.
//  FullName     – display name.
//  Role         – ADMIN or MEMBER.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    RefNo        string    // users.ref_no
    FullName     string    // users.full_name
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Role values stored in users.role and carried in the JWT "role" claim.
const (
    RoleAdmin  = "ADMIN"
    RoleMember = "MEMBER"
)

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
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
