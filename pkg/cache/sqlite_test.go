package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	backend, err := OpenSQLite(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	backend := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Hour))
	require.NoError(t, backend.Set(ctx, map[string][]byte{"a": []byte("3")}, time.Hour))

	values, err := backend.Get(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("3"), "b": []byte("2")}, values)

	require.NoError(t, backend.Delete(ctx, []string{"a", "missing"}))
	values, err = backend.Get(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"b": []byte("2")}, values)
}

func TestSQLiteBackend_ManagerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	ctx := context.Background()
	players := testPlayers(DefaultMinPlayers)

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, NewManager(first, DefaultConfig()).Save(ctx, testTeams(), players))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	entry, err := NewManager(second, DefaultConfig()).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entry.Players, DefaultMinPlayers)
	assert.Equal(t, testTeams(), entry.Teams)
}

func TestSQLiteBackend_SetRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roster_cache").WillReturnResult(sqlmock.NewResult(0, 0))
	backend, err := NewSQLiteBackend(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO roster_cache").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = backend.Set(context.Background(), map[string][]byte{"mlb:players": []byte("[]")}, time.Hour)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteBackend_SchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roster_cache").WillReturnError(errors.New("read-only database"))

	_, err = NewSQLiteBackend(db)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_LoadErrorFromBackend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roster_cache").WillReturnResult(sqlmock.NewResult(0, 0))
	backend, err := NewSQLiteBackend(db)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT key, value FROM roster_cache").WillReturnError(errors.New("database is locked"))

	_, err = NewManager(backend, DefaultConfig()).Load(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "database is locked")
}
