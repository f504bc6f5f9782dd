package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"equipapi/pkg/database/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_access_tokens.sql",
		"00003_create_equipment.sql",
	}, files)
}

func TestMigrateSQL_UsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, d *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		assert.Same(t, db, d)
		return nil
	}

	require.NoError(t, migrateSQL(context.Background(), db))
	assert.Equal(t, ".", gotDir)
}

func TestMigrateSQL_WrapsError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, d *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	err = migrateSQL(context.Background(), db)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func newPingMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return db, mock
}

func TestOpen_ClosesPoolWhenPingFails(t *testing.T) {
	db, mock := newPingMock(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	_, err := open(context.Background(), postgres.New(postgres.Config{Conn: db}), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_ClosesPoolWhenMigrationFails(t *testing.T) {
	db, mock := newPingMock(t)
	mock.ExpectPing()
	mock.ExpectClose()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()
	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, d *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	_, err := open(context.Background(), postgres.New(postgres.Config{Conn: db}), true)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_SkipsMigrationsWhenDisabled(t *testing.T) {
	db, mock := newPingMock(t)
	defer db.Close()
	mock.ExpectPing()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()
	gooseUpContext = func(ctx context.Context, d *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		t.Fatal("migrations must not run")
		return nil
	}

	gdb, err := open(context.Background(), postgres.New(postgres.Config{Conn: db}), false)
	require.NoError(t, err)
	assert.NotNil(t, gdb)
	require.NoError(t, mock.ExpectationsWereMet())
}
