package db

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	retryInterval = 10 * time.Millisecond
}

// TestBuildDSN はドライバごとの接続文字列を検証します。
func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres",
			cfg: Config{Driver: DriverPostgres, User: "testuser", Password: "testpass", Name: "testdb",
				Host: "localhost", Port: "5432", SSLMode: "disable"},
			want: "host=localhost user=testuser password=testpass dbname=testdb port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "sqlite uses path",
			cfg:  Config{Driver: DriverSQLite, SQLitePath: "file::memory:?cache=shared", Host: "ignored"},
			want: "file::memory:?cache=shared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

func TestOpenerFor_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenerFor("mysql")
	assert.Error(t, err)
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attempts)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後に最後のエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection refused")
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		return nil, refused
	}

	_, err := ConnectWithRetry("test-dsn", 30*time.Millisecond, opener)

	assert.ErrorIs(t, err, refused)
	assert.GreaterOrEqual(t, attempts, 1)
}

// TestLoadConfigFromEnv は環境変数からデータベース設定が読み込まれることを検証します。
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpass")
	t.Setenv("DB_NAME", "envdb")
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("RUN_MIGRATIONS", "true")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, Config{
		Driver:        DriverPostgres,
		User:          "envuser",
		Password:      "envpass",
		Name:          "envdb",
		Host:          "envhost",
		Port:          "5432",
		SSLMode:       "require",
		SQLitePath:    "indicators.db",
		RunMigrations: true,
	}, cfg)
}

// TestOpenDB_SQLiteMigrates はSQLiteでの接続とマイグレーションを検証します。
func TestOpenDB_SQLiteMigrates(t *testing.T) {
	t.Parallel()

	db, err := OpenDB(Config{Driver: DriverSQLite, SQLitePath: ":memory:", RunMigrations: true})
	require.NoError(t, err)

	for _, table := range []string{"users", "prices", "daily_usage"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
}
