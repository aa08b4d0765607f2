package dataset

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/dredgelabs/dredge/pkg/log"
)

// Registry holds every dataset loaded at startup. It is populated once
// and read-only afterwards; there is no hot reload. Iteration order is
// sorted by key so limit short-circuiting behaves the same across runs.
type Registry struct {
	entries map[string]*Entry
	keys    []string
}

// readPragmas tunes connections for large read-mostly files. The
// datasets are opened read-only, so journaling settings are irrelevant;
// cache and mmap sizing are what matter for multi-GB files.
var readPragmas = []string{
	"PRAGMA busy_timeout = 10000",
	"PRAGMA cache_size = -64000",
	"PRAGMA mmap_size = 268435456",
	"PRAGMA temp_store = memory",
}

// LoadAll scans dir for .db files and opens each one read-only. A bad
// file never aborts loading of the others: its failure is logged and
// the file is excluded from the registry.
func LoadAll(dir string) (*Registry, error) {
	logger := log.ForComponent("registry")

	reg := &Registry{entries: make(map[string]*Entry)}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("data directory not found: %s", dir)
			return reg, nil
		}
		return nil, fmt.Errorf("reading data directory %s: %w", dir, err)
	}

	var files []string
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".db") {
			files = append(files, de.Name())
		}
	}
	sort.Strings(files)

	logger.Infof("found %d database file(s) in %s", len(files), dir)

	for _, file := range files {
		// Keys are lowercased stems, so Good.db and good.db collide;
		// the first file wins and the other is skipped.
		key := strings.ToLower(strings.TrimSuffix(file, ".db"))
		if _, exists := reg.entries[key]; exists {
			logger.Warnf("skipping %s: dataset key %q already loaded", file, key)
			continue
		}

		entry, err := openEntry(filepath.Join(dir, file), file)
		if err != nil {
			logger.Errorf("failed to load %s: %v", file, err)
			continue
		}

		mode := "regular"
		if entry.IsFTS {
			mode = "FTS5"
		}
		logger.Infof("loaded %s -> table %q (%s, %d columns)", file, entry.TableName, mode, len(entry.Columns))

		reg.entries[entry.Key] = entry
		reg.keys = append(reg.keys, entry.Key)
	}
	sort.Strings(reg.keys)

	return reg, nil
}

func openEntry(path, filename string) (*Entry, error) {
	key := strings.ToLower(strings.TrimSuffix(filename, ".db"))

	db, err := sql.Open("sqlite3", "file:"+filepath.ToSlash(path)+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range readPragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	schema, err := DetectSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if schema.ProbeFailed {
		log.ForComponent("registry").Warnf("%s: FTS index broken, using plain table path", filename)
	}

	// Liveness probe: one row read confirms the file is not truncated
	// past the catalog.
	probe := fmt.Sprintf(`SELECT 1 FROM %q LIMIT 1`, schema.TableName)
	if rows, err := db.Query(probe); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("probing table %s: %w", schema.TableName, err)
	} else {
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			_ = db.Close()
			return nil, fmt.Errorf("probing table %s: %w", schema.TableName, err)
		}
		_ = rows.Close()
	}

	entry := &Entry{
		Key:             key,
		Filename:        filename,
		TableName:       schema.TableName,
		Columns:         schema.Columns,
		IsFTS:           schema.IsFTS,
		FallbackTable:   schema.FallbackTable,
		FallbackColumns: schema.FallbackColumns,
		db:              db,
	}
	entry.ftsHealthy.Store(schema.IsFTS)

	return entry, nil
}

// Keys returns the dataset keys in iteration order.
func (r *Registry) Keys() []string {
	return r.keys
}

// Entries returns all datasets in deterministic key order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.entries[k])
	}
	return out
}

// Get returns the dataset with the given key.
func (r *Registry) Get(key string) (*Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Len returns the number of loaded datasets.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Close closes every dataset handle.
func (r *Registry) Close() error {
	var errs []error
	for _, e := range r.entries {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", e.Key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing datasets: %v", errs)
	}
	return nil
}

// add registers an entry directly; used by tests to build registries
// without a directory scan. Duplicate keys keep the first entry, like
// LoadAll.
func (r *Registry) add(e *Entry) {
	if _, exists := r.entries[e.Key]; exists {
		return
	}
	r.entries[e.Key] = e
	r.keys = append(r.keys, e.Key)
	sort.Strings(r.keys)
}

// NewRegistryFromEntries builds a registry from pre-opened entries.
func NewRegistryFromEntries(entries ...*Entry) *Registry {
	r := &Registry{entries: make(map[string]*Entry)}
	for _, e := range entries {
		r.add(e)
	}
	return r
}

// OpenEntry opens a single dataset file. It is exported for the CLI
// and tests; LoadAll is the normal path.
func OpenEntry(path string) (*Entry, error) {
	return openEntry(path, filepath.Base(path))
}
