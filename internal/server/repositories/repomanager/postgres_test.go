package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fitcoach/internal/server/migrations"
	"github.com/dmitrijs2005/fitcoach/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/fitcoach/internal/server/repositories/users"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db := newDB(t)

	var m RepositoryManager = NewPostgresRepositoryManager()

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &refreshtokens.PostgresRepository{}, m.RefreshTokens(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db := newDB(t)

	orig := migrateUp
	t.Cleanup(func() { migrateUp = orig })

	var got *sql.DB
	migrateUp = func(ctx context.Context, d *sql.DB) error {
		got = d
		return nil
	}

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Same(t, db, got)
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t)

	orig := migrateUp
	t.Cleanup(func() { migrateUp = orig })
	migrateUp = func(context.Context, *sql.DB) error { return errors.New("boom") }

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "migrate: boom")
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.Migrations.ReadDir(".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_refresh_tokens.sql"}, names)
}
