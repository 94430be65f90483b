// package database opens the run history store: postgresql or a local sqlite file.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB wraps a GORM instance. Pool is set only for postgresql.
type DB struct {
	Pool *pgxpool.Pool
	GORM *gorm.DB
}

// Driver names a supported backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseURL splits a database URL into driver and DSN.
// "postgres://" and "postgresql://" select postgresql; "sqlite:<path>",
// "file:<path>" and bare paths select sqlite.
func ParseURL(databaseURL string) (Driver, string, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return "", "", fmt.Errorf("database url is empty")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u, nil
	case strings.HasPrefix(u, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(u, "sqlite://"), nil
	case strings.HasPrefix(u, "sqlite:"):
		return DriverSQLite, strings.TrimPrefix(u, "sqlite:"), nil
	case strings.Contains(u, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme: %s", u)
	default:
		return DriverSQLite, u, nil
	}
}

// New opens the database behind databaseURL and migrates the schema.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	driver, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	db := &DB{}
	switch driver {
	case DriverPostgres:
		config, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}

		pool, err := pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("create connection pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		// GORM shares the pool
		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), gormCfg)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		db.Pool = pool
		db.GORM = gormDB

	case DriverSQLite:
		if !isMemory(dsn) {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create database directory: %w", err)
				}
			}
		}
		gormDB, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.GORM = gormDB
	}

	if err := Migrate(db.GORM); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connections.
func (db *DB) Close() {
	if sqlDB, err := db.GORM.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	sqlDB, err := db.GORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}
