package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// TestMigrateLegacyDisabledSchema opens a database written by the old
// schema, where deactivation was tracked as is_disabled, and verifies
// the rows surface through the archived model after migration.
func TestMigrateLegacyDisabledSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// Build a v1-only database with one disabled and one active address.
	db, err := sqlx.Open("sqlite", dbPath)
	require.NoError(t, err)

	_, err = db.Exec(migrations[0].sql)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = db.Exec(`
		INSERT INTO addresses (id, name, email, password, auth_token, is_disabled, created_at, updated_at)
		VALUES
			('legacy-disabled', '', 'old@example.com', 'pw', 'tok', 1, ?, ?),
			('legacy-active',   '', 'new@example.com', 'pw', 'tok', 0, ?, ?)`,
		now, now, now, now,
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening through the store applies the outstanding migrations.
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	archived, err := s.GetArchivedAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	require.Equal(t, "legacy-disabled", archived[0].ID)
	require.True(t, archived[0].Archived)

	active, err := s.GetActiveAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "legacy-active", active[0].ID)

	// Ids survive the schema change.
	got, err := s.GetAddressByID(ctx, "legacy-disabled")
	require.NoError(t, err)
	require.Equal(t, "old@example.com", got.Email)
}

// TestMigrationsIdempotentOnReopen verifies that reopening an up-to-date
// database applies nothing and loses nothing.
func TestMigrationsIdempotentOnReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "current.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.CreateAddress(ctx, testAddress("acc1")))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	active, err := s2.GetActiveAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestMigrationVersionsSequential(t *testing.T) {
	for i, m := range migrations {
		require.Equal(t, i+1, m.version)
	}
}
