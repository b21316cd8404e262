// Package pgstore is the Postgres implementation of notification.Store,
// inbox.Storage and queue.Repository, built on pgx/v5. The schema ships as
// embedded goose migrations; apply them with pg.Migrate(ctx, pool,
// pgstore.Migrations, pgstore.MigrationsDir, cfg, log).
package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations holds the schema for all notification tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultUserQuery loads a user by id. It must select id, email and the
// active flag, in that order.
const DefaultUserQuery = `SELECT id, email, active FROM users WHERE id = $1`
