// Package database centralises sqlx connection helpers for the MySQL
// document backend.  The driver is go-sql-driver/mysql, which also works
// with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)               – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, p) – fine-grained control from config.
//
// Both helpers Ping the database before returning so bootstrap fails fast.
// Callers Close() the returned *sqlx.DB on shutdown.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Pool holds connection-pool tunables.  Zero values fall back to defaults.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool matches a single web node writing one lead at a time.
var DefaultPool = Pool{MaxOpen: 15, MaxIdle: 5, MaxLifetime: 30 * time.Minute}

// Open returns a *sqlx.DB using DefaultPool.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultPool)
}

// OpenWithOptions parses dsn, forces parseTime so DATETIME columns scan
// into time.Time, applies p, and pings.
func OpenWithOptions(ctx context.Context, dsn string, p Pool) (*sqlx.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("database: parse dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	if p.MaxOpen == 0 {
		p.MaxOpen = DefaultPool.MaxOpen
	}
	if p.MaxIdle == 0 {
		p.MaxIdle = DefaultPool.MaxIdle
	}
	if p.MaxLifetime == 0 {
		p.MaxLifetime = DefaultPool.MaxLifetime
	}
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
