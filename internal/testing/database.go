// Package testing holds shared test fixtures.
package testing

import (
	"database/sql"
	"testing"

	"github.com/opengamedata/ogdviz/db"
)

// CreateTestDB returns an in-memory SQLite database with the cache schema applied.
// The database is closed via t.Cleanup.
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// each new :memory: connection would be a fresh empty database
	conn.SetMaxOpenConns(1)

	if err := db.Migrate(conn, nil); err != nil {
		conn.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}
