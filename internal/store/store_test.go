package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_SeedsSecureFlags(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"web/secure/use_in_frontend", "web/secure/use_in_adminhtml"} {
		v, ok, err := s.GetConfig(ctx, path)
		require.NoError(t, err)
		assert.True(t, ok, path)
		assert.Equal(t, "No", v, path)
	}
}

func TestOpen_MigrationRunsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.DeleteConfig(ctx, "web/secure/use_in_frontend"))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	_, ok, err := s2.GetConfig(ctx, "web/secure/use_in_frontend")
	require.NoError(t, err)
	assert.False(t, ok, "reopen must not re-seed deleted config")
}

func TestClose_Nil(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}
