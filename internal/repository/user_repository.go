package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/utils"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user with a bcrypt-hashed password and returns
// the generated ID.  It maps MySQL duplicate-key violations on the
// unique email and ref_no indexes to ErrEmailExists and ErrRefNoExists.
func (r *UserRepo) Create(ctx context.Context, email, password, refNo, fullName, role string, bcryptCost int) (uint64, error) {
    hash, err := utils.HashPassword(password, bcryptCost)
    if err != nil {
        return 0, err
    }
    const q = `INSERT INTO users (email, password_hash, ref_no, full_name, role, is_active)
               VALUES (?, ?, ?, ?, ?, 1)`
    result, err := r.db.ExecContext(ctx, q, email, hash, refNo, fullName, role)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            if strings.Contains(me.Message, "ref_no") {
                return 0, ErrRefNoExists
            }
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail loads a user by email.  Returns sql.ErrNoRows when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    const q = `SELECT id, email, password_hash, ref_no, full_name, role, is_active, created_at, updated_at
               FROM users WHERE email = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// GetByID loads a user by primary key.  Returns sql.ErrNoRows when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    const q = `SELECT id, email, password_hash, ref_no, full_name, role, is_active, created_at, updated_at
               FROM users WHERE id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
    var u model.User
    if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.RefNo, &u.FullName, &u.Role,
        &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
        return nil, err
    }
    return &u, nil
}
