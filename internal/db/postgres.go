// Package db holds constructors for the three backing stores: Postgres
// (users), MongoDB (dialog and social documents), and Redis (cache).
package db

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres opens the users database using the given DSN. Caller must call Close when done.
func OpenPostgres(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
