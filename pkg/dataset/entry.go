// Package dataset loads read-only SQLite dump files, detects the shape
// of each one (FTS5 virtual table or plain table, unknown column
// names), and keeps the open handles in a registry for the process
// lifetime. Datasets are pre-built and supplied out-of-band; nothing in
// this package ever writes to them.
package dataset

import (
	"database/sql"
	"sync/atomic"
)

// Entry is one loaded dataset file. All fields are fixed at load time
// except the FTS health flag, which may be downgraded (once, one-way)
// when a MATCH query fails during a live search.
type Entry struct {
	// Key identifies the dataset: the filename stem, lowercased.
	Key string
	// Filename is the file's base name inside the data directory.
	Filename string
	// TableName is the table queried on the primary path: the FTS5
	// virtual table when IsFTS, otherwise a plain table.
	TableName string
	// Columns are the user-facing columns of TableName, in declaration
	// order.
	Columns []string
	// IsFTS marks datasets whose primary path is an FTS5 MATCH query.
	IsFTS bool
	// FallbackTable is the table used for LIKE queries: the content
	// shadow table for FTS datasets, TableName otherwise. Empty when
	// no LIKE fallback exists.
	FallbackTable string
	// FallbackColumns are the columns of FallbackTable.
	FallbackColumns []string

	db         *sql.DB
	ftsHealthy atomic.Bool
}

// DB returns the read-only database handle.
func (e *Entry) DB() *sql.DB {
	return e.db
}

// FTSHealthy reports whether the FTS path is still usable.
func (e *Entry) FTSHealthy() bool {
	return e.IsFTS && e.ftsHealthy.Load()
}

// DegradeFTS permanently disables the FTS path for this entry. The
// flag never flips back within the process lifetime; a broken index is
// assumed broken for good, not transient.
func (e *Entry) DegradeFTS() {
	e.ftsHealthy.Store(false)
}

// Close releases the underlying connection.
func (e *Entry) Close() error {
	return e.db.Close()
}
