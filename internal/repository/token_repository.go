package repository

import (
    "context"
    "database/sql"
    "time"
)

// TokenRepo provides data access to the refresh_tokens table.  Only the
// SHA-256 hash of a refresh token is ever stored; validation and
// revocation operate on the hash.
type TokenRepo struct {
    db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh persists a refresh token hash for a user together with
// its expiration time.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
    const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, userID, tokenHash, expiresAt.Format("2006-01-02 15:04:05"))
    return err
}

// ValidateRefresh returns the owning user ID when the hash matches a
// token that is neither revoked nor expired.  sql.ErrNoRows otherwise.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    const q = `SELECT user_id FROM refresh_tokens
               WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > NOW()`
    var userID uint64
    if err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID); err != nil {
        return 0, err
    }
    return userID, nil
}

// RevokeByHash marks a single refresh token as revoked.  Revoking an
// already-revoked or unknown hash is a no-op.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    const q = `UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`
    _, err := r.db.ExecContext(ctx, q, tokenHash)
    return err
}

// RevokeAllForUser revokes every active refresh token of a user, used
// on logout-everywhere flows.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    const q = `UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = ? AND revoked_at IS NULL`
    _, err := r.db.ExecContext(ctx, q, userID)
    return err
}
