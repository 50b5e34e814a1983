package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zheridan29/medecine-november/config"
)

func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		ConnectTimeout: 5,
		QueryTimeout:   5,
	}
}

func TestBuildDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		Name:     "medicine",
		SSLMode:  "disable",
	}

	dsn := BuildDSN(cfg)

	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=medicine sslmode=disable", dsn)
}

func TestOpenMigratesSchema(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)

	for _, table := range []string{"medicines", "orders", "order_items", "order_status_histories", "stock_movements"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestConnectWithRetrySuccess(t *testing.T) {
	mockDB := &gorm.DB{}
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		return mockDB, nil
	}

	db, err := ConnectWithRetry("dsn", 5*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

func TestConnectWithRetryDeadline(t *testing.T) {
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	started := time.Now()
	_, err := ConnectWithRetry("dsn", 100*time.Millisecond, opener)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.GreaterOrEqual(t, attempts, 2)
	// The retry sleep is capped at the remaining deadline, so a short
	// timeout fails in roughly that time rather than a full retry interval.
	assert.Less(t, time.Since(started), time.Second)
}
