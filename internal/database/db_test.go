package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/database/migrations"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "app", Pass: "pw", Host: "db", Port: "3307", Name: "contacts"})

	assert.Contains(t, dsn, "app:pw@tcp(db:3307)/contacts")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "collation=utf8mb4_unicode_ci")
}

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_contacts.sql"}, files)
}

// Column widths must hold everything the contact endpoints accept.
func TestMigrations_ContactColumnWidths(t *testing.T) {
	ddl, err := fs.ReadFile(migrations.FS, "00002_create_contacts.sql")
	require.NoError(t, err)

	for col, typ := range map[string]string{
		"first_name":      `VARCHAR\(50\)`,
		"last_name":       `VARCHAR\(50\)`,
		"email":           `VARCHAR\(100\)`,
		"phone":           `VARCHAR\(50\)`,
		"additional_data": `TEXT`,
	} {
		re := regexp.MustCompile(`(?m)^\s*` + col + `\s+` + typ + `\s`)
		assert.Regexp(t, re, string(ddl), col)
	}
}

func TestMigrate_RunsGoose(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, ".", gotDir)
}

func TestMigrate_PropagatesError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
