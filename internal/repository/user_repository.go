package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/contacts-api/internal/model"
)

// UserRepo is the MySQL-backed user directory.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser holds the columns supplied at registration.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

const userColumns = "id, username, email, hashed_password, avatar, confirmed, role, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u      model.User
		avatar sql.NullString
		role   string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &avatar, &u.Confirmed, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Avatar = avatar.String
	u.Role = model.Role(role)
	return u, nil
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	const q = "SELECT " + userColumns + " FROM users WHERE id = ? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, id))
}

// FindByUsername fetches a user by username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	const q = "SELECT " + userColumns + " FROM users WHERE username = ? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, username))
}

// FindByEmail fetches a user by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	const q = "SELECT " + userColumns + " FROM users WHERE email = ? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, email))
}

// Insert creates a user and returns the stored row. New users are always
// unconfirmed. A unique key violation yields ErrDuplicate.
func (r *UserRepo) Insert(ctx context.Context, nu NewUser, avatar string, role model.Role) (model.User, error) {
	const q = "INSERT INTO users (username, email, hashed_password, avatar, confirmed, role) VALUES (?, ?, ?, ?, FALSE, ?)"
	res, err := r.DB.ExecContext(ctx, q, nu.Username, nu.Email, nu.PasswordHash, nullString(avatar), string(role))
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.FindByID(ctx, uint64(id))
}

// SetConfirmed marks the user with email as confirmed.
func (r *UserRepo) SetConfirmed(ctx context.Context, email string) error {
	const q = "UPDATE users SET confirmed = TRUE WHERE email = ?"
	return r.execOne(ctx, q, email)
}

// SetPasswordHash replaces the stored password digest.
func (r *UserRepo) SetPasswordHash(ctx context.Context, email, hash string) error {
	const q = "UPDATE users SET hashed_password = ? WHERE email = ?"
	return r.execOne(ctx, q, hash, email)
}

// SetAvatar stores a new avatar URL and returns the updated user.
func (r *UserRepo) SetAvatar(ctx context.Context, email, url string) (model.User, error) {
	const q = "UPDATE users SET avatar = ? WHERE email = ?"
	if err := r.execOne(ctx, q, url, email); err != nil {
		return model.User{}, err
	}
	return r.FindByEmail(ctx, email)
}

// SetRole changes the role of the user with email and returns the updated user.
func (r *UserRepo) SetRole(ctx context.Context, email string, role model.Role) (model.User, error) {
	const q = "UPDATE users SET role = ? WHERE email = ?"
	if err := r.execOne(ctx, q, string(role), email); err != nil {
		return model.User{}, err
	}
	return r.FindByEmail(ctx, email)
}

// Ping checks the database with a trivial query.
func (r *UserRepo) Ping(ctx context.Context) error {
	var one int
	return r.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// execOne runs an UPDATE that must match exactly one user.
func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
