package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/greenloop/ewaste-pickup/internal/model"
    "github.com/greenloop/ewaste-pickup/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, email, password_hash, role, phone, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
    var (
        u     model.User
        phone sql.NullString
    )
    err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
        &phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return model.User{}, err
    }
    if phone.Valid {
        p := phone.String
        u.Phone = &p
    }
    return u, nil
}

// Create inserts an account and returns its id.  The email is
// normalized to lowercase before storage; duplicate username/email rows
// are reported through the MySQL unique-key error (1062).
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
        username, email, hash, role)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrAccountExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile applies the non-nil fields to an account.  The caller is
// responsible for verifying the current password before changing it.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, email, passwordHash *string) error {
    sets := make([]string, 0, 3)
    args := make([]interface{}, 0, 4)
    if username != nil {
        sets = append(sets, "username=?")
        args = append(args, *username)
    }
    if email != nil {
        sets = append(sets, "email=?")
        args = append(args, strings.ToLower(strings.TrimSpace(*email)))
    }
    if passwordHash != nil {
        sets = append(sets, "password_hash=?")
        args = append(args, *passwordHash)
    }
    if len(sets) == 0 {
        return nil
    }
    args = append(args, id)
    _, err := r.DB.ExecContext(ctx,
        "UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
    if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
        return ErrAccountExists
    }
    return err
}

// SetResetToken stores the hash of a freshly issued password reset token
// together with its expiry.  Only the hash is persisted, following the
// same convention as refresh tokens.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, tokenHash string, exp time.Time) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE users SET reset_token_hash=?, reset_token_expires=? WHERE id=?",
        tokenHash, exp, id)
    return err
}

// GetByResetToken returns the account holding a non-expired reset token
// hash, or sql.ErrNoRows.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE reset_token_hash=? AND reset_token_expires > ? LIMIT 1",
        tokenHash, time.Now().UTC()))
}

// ResetPassword replaces the password hash and clears the reset token
// fields so the token cannot be replayed.
func (r *UserRepo) ResetPassword(ctx context.Context, id uint64, passwordHash string) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_token_expires=NULL WHERE id=?",
        passwordHash, id)
    return err
}
