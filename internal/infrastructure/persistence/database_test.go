package persistence

import (
	"testing"

	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestOpen_AppliesPoolSettings(t *testing.T) {
	database, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 3, MaxIdleConns: 1})
	require.NoError(t, err)
	defer database.Close()

	stats, err := database.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.MaxOpenConnections)
	assert.LessOrEqual(t, stats.Idle, 1)
	assert.NoError(t, database.Ping())
}

func TestOpen_NilConfigKeepsDriverDefaults(t *testing.T) {
	database, err := Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	defer database.Close()

	stats, err := database.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.MaxOpenConnections)
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	database := &Database{DB: db}

	t.Run("ping succeeds", func(t *testing.T) {
		mock.ExpectPing()
		assert.NoError(t, database.Ping())
	})

	t.Run("close closes the pool", func(t *testing.T) {
		mock.ExpectClose()
		assert.NoError(t, database.Close())
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
