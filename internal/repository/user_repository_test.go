package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/model"
)

var userCols = []string{"id", "username", "email", "hashed_password", "avatar", "confirmed", "role", "created_at"}

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepo(db), mock
}

func TestUserRepo_FindByUsername(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \? LIMIT 1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "alice", "a@example.com", "hash", nil, true, "admin", created))

	u, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, model.User{
		ID: 1, Username: "alice", Email: "a@example.com", PasswordHash: "hash",
		Confirmed: true, Role: model.RoleAdmin, CreatedAt: created,
	}, u)
}

func TestUserRepo_FindByEmail_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \?`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserRepo_FindByID(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(9, "bob", "b@example.com", "hash", "https://cdn/x.png", false, "user", time.Now()))

	u, err := repo.FindByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", u.Avatar)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestUserRepo_Insert(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (username, email, hashed_password, avatar, confirmed, role) VALUES (?, ?, ?, ?, FALSE, ?)")).
		WithArgs("alice", "a@example.com", "hash", "https://gravatar/x", "user").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(5, "alice", "a@example.com", "hash", "https://gravatar/x", false, "user", time.Now()))

	u, err := repo.Insert(context.Background(), NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "hash"},
		"https://gravatar/x", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), u.ID)
	assert.False(t, u.Confirmed)
}

func TestUserRepo_Insert_Duplicate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'uq_users_username'"})

	_, err := repo.Insert(context.Background(), NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "h"}, "", model.RoleUser)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserRepo_SetConfirmed(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET confirmed = TRUE WHERE email = ?")).
		WithArgs("a@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET confirmed = TRUE WHERE email = ?")).
		WithArgs("ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetConfirmed(context.Background(), "a@example.com"))
	assert.ErrorIs(t, repo.SetConfirmed(context.Background(), "ghost@example.com"), ErrUserNotFound)
}

func TestUserRepo_SetPasswordHash(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET hashed_password = ? WHERE email = ?")).
		WithArgs("newhash", "a@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetPasswordHash(context.Background(), "a@example.com", "newhash"))
}

func TestUserRepo_SetRole(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = ? WHERE email = ?")).
		WithArgs("admin", "a@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \?`).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "alice", "a@example.com", "hash", nil, true, "admin", time.Now()))

	u, err := repo.SetRole(context.Background(), "a@example.com", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
}

func TestUserRepo_SetAvatar_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET avatar = ? WHERE email = ?")).
		WithArgs("https://cdn/a.png", "ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.SetAvatar(context.Background(), "ghost@example.com", "https://cdn/a.png")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_Ping(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("server has gone away"))

	assert.NoError(t, repo.Ping(context.Background()))
	assert.Error(t, repo.Ping(context.Background()))
}
