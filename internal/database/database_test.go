package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		driver  Driver
		dsn     string
		wantErr bool
	}{
		{"postgres", "postgres://u:p@localhost:5432/db", DriverPostgres, "postgres://u:p@localhost:5432/db", false},
		{"postgresql", "postgresql://localhost/db", DriverPostgres, "postgresql://localhost/db", false},
		{"sqlite prefix", "sqlite:data/app.db", DriverSQLite, "data/app.db", false},
		{"sqlite url", "sqlite://data/app.db", DriverSQLite, "data/app.db", false},
		{"bare path", "history.db", DriverSQLite, "history.db", false},
		{"memory", "sqlite::memory:", DriverSQLite, ":memory:", false},
		{"empty", " ", "", "", true},
		{"mysql", "mysql://localhost/db", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestNew_SQLiteFileCreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := New(context.Background(), "sqlite:"+path)
	require.NoError(t, err)
	defer db.Close()

	assert.Nil(t, db.Pool)
	require.NoError(t, db.Ping(context.Background()))
	assert.True(t, db.GORM.Migrator().HasTable(&RunRecord{}))
	assert.True(t, db.GORM.Migrator().HasTable(&EntryRecord{}))
	assert.FileExists(t, path)
}

func TestNew_PostgresUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.Error(t, err)
}
