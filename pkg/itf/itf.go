// Package itf provisions throwaway PostgreSQL databases for integration tests.
package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/migrations"
	"github.com/iota-uz/staffing/pkg/composables"
	"github.com/iota-uz/staffing/pkg/configuration"
)

const (
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

func NewPool(dbOpts string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	config, err := pgxpool.ParseConfig(dbOpts)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	return pool, nil
}

// IsCI reports whether integration tests must fail instead of skipping when
// PostgreSQL is unavailable.
func IsCI() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CI")))
	return v == "1" || v == "true"
}

// NewTestDB creates a fresh database named after the test, applies the
// migrations and returns a pool to it. The database is dropped on cleanup.
func NewTestDB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	ctx := context.Background()
	conf := configuration.Use()

	admin := conf.Database
	admin.Name = "postgres"
	adminConn, err := pgx.Connect(ctx, admin.ConnectionString())
	if err != nil {
		if IsCI() {
			require.NoError(tb, err)
		}
		tb.Skip("postgres is not reachable; skipping integration test")
	}
	tb.Cleanup(func() { _ = adminConn.Close(ctx) })

	dbName := "itf_" + sanitizeDBName(tb.Name())
	if len(dbName) > maxDBNameLength {
		dbName = dbName[:maxDBNameLength]
	}
	_, _ = adminConn.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName)
	if _, err := adminConn.Exec(ctx, "CREATE DATABASE "+dbName); err != nil {
		if IsCI() {
			require.NoError(tb, err)
		}
		tb.Skip("failed to create test database; skipping integration test")
	}

	opts := conf.Database
	opts.Name = dbName
	pool, err := NewPool(opts.ConnectionString())
	require.NoError(tb, err)
	tb.Cleanup(func() {
		pool.Close()
		_, _ = adminConn.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName)
	})

	_, err = migrations.Up(ctx, pool)
	require.NoError(tb, err)
	return pool
}

// Context returns a background context carrying pool.
func Context(pool *pgxpool.Pool) context.Context {
	return composables.WithPool(context.Background(), pool)
}

// sanitizeDBName lowercases name, replaces everything outside [a-z0-9_] and
// keeps the result within PostgreSQL's identifier limit.
func sanitizeDBName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, strings.ToLower(name))

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength-len("itf_") {
		return sanitized
	}
	return truncateWithHash(sanitized, name)
}

func truncateWithHash(sanitized, original string) string {
	sum := sha256.Sum256([]byte(original))
	hash := fmt.Sprintf("%x", sum)[:8]
	keep := maxDBNameLength - len("itf_") - hashSuffixLength
	return fmt.Sprintf("%s_%s", sanitized[:keep], hash)
}
