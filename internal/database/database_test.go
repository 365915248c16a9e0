package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestNewDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := NewDB(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, db.CreateBooking(ctx, testVenueBooking("persisted", testDay(15, 9))))
	require.NoError(t, db.Close())

	db, err = NewDB(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetBooking(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.ID)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	assert.NoError(t, db.PingContext(context.Background()))
}
