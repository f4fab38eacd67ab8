package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates tables and indexes if they are missing. Safe to run on every boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	// simple protocol allows multiple statements in one Exec
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Conn().PgConn().Exec(ctx, schemaSQL).ReadAll()
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
