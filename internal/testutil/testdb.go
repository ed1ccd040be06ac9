// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/GoCodeAlone/dayplan/store"
	"github.com/jmoiron/sqlx"
)

// NewTestDB creates an in-memory SQLite database with the schema applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(db *sqlx.DB) store.UnitOfWork {
	return store.NewUnitOfWork(db)
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
