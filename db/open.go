// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open connects to the database and verifies the connection
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypePostgres:
		driver = "postgres"
	case TypeSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbType, err)
	}

	if dbType == TypeSQLite {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to configure sqlite: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}
