package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNoUsableTable is returned when a database file contains no
// queryable table at all.
var ErrNoUsableTable = errors.New("no usable table found")

// Schema describes the detected shape of one database file.
type Schema struct {
	TableName       string
	Columns         []string
	IsFTS           bool
	FallbackTable   string
	FallbackColumns []string
	// ProbeFailed records that an FTS5 table was present but its probe
	// MATCH query threw, forcing the plain-table path from the start.
	ProbeFailed bool
}

// shadowSuffixes are the internal companion tables an FTS5 virtual
// table creates; they are never the main table.
var shadowSuffixes = []string{"_data", "_idx", "_content", "_docsize", "_config"}

// DetectSchema inspects the catalog of an open database and finds the
// single main table. An FTS5 virtual table is preferred, but only
// after a probe MATCH query proves the index actually executes:
// partially corrupted exports keep their schema while MATCH throws at
// query time. Otherwise the first ordinary table wins.
func DetectSchema(db *sql.DB) (*Schema, error) {
	tables, err := listMainTables(db)
	if err != nil {
		return nil, err
	}

	contentTables, err := listContentTables(db)
	if err != nil {
		return nil, err
	}

	if len(contentTables) > 0 {
		ct := contentTables[0]
		base := strings.TrimSuffix(ct, "_content")

		if containsTable(tables, base) {
			cols, err := tableColumns(db, ct)
			if err != nil {
				return nil, err
			}
			realCols := withoutColumn(cols, "id")

			if len(realCols) > 0 {
				if probeErr := probeMatch(db, base); probeErr == nil {
					// The virtual table carries the declared column
					// names; the content shadow only has c0, c1, ...
					declared, err := tableColumns(db, base)
					if err != nil {
						return nil, err
					}
					return &Schema{
						TableName:       base,
						Columns:         declared,
						IsFTS:           true,
						FallbackTable:   ct,
						FallbackColumns: realCols,
					}, nil
				}
				// Broken FTS index: serve the content table directly.
				return &Schema{
					TableName:       ct,
					Columns:         realCols,
					IsFTS:           false,
					FallbackTable:   ct,
					FallbackColumns: realCols,
					ProbeFailed:     true,
				}, nil
			}
		}
	}

	if len(tables) > 0 {
		first := tables[0]
		cols, err := tableColumns(db, first)
		if err != nil {
			return nil, err
		}
		return &Schema{
			TableName:       first,
			Columns:         cols,
			IsFTS:           false,
			FallbackTable:   first,
			FallbackColumns: cols,
		}, nil
	}

	return nil, ErrNoUsableTable
}

// listMainTables returns catalog tables that are not FTS shadow tables
// and not SQLite internals.
func listMainTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE '%_data'
		  AND name NOT LIKE '%_idx'
		  AND name NOT LIKE '%_content'
		  AND name NOT LIKE '%_docsize'
		  AND name NOT LIKE '%_config'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func listContentTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name LIKE '%_content'
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// tableColumns reads the column list of a table in declaration order.
func tableColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// probeMatch runs a cheap MATCH query to verify the FTS index executes.
// A query that returns no rows is still a healthy index; only an
// execution error marks it broken.
func probeMatch(db *sql.DB, table string) error {
	q := fmt.Sprintf(`SELECT rowid FROM %q WHERE %q MATCH 'test' LIMIT 1`, table, table)
	rows, err := db.Query(q)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
	}
	return rows.Err()
}

func containsTable(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}

func withoutColumn(cols []string, drop string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}
