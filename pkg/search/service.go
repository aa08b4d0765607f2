package search

import (
	"context"
	"time"

	"github.com/dredgelabs/dredge/pkg/dataset"
	"github.com/dredgelabs/dredge/pkg/log"
)

// MaxLimit caps the page size regardless of what the caller requests.
const MaxLimit = 50

// Results is the merged outcome of one search call. Total counts the
// rows actually returned by this call, not an unbounded match count.
type Results struct {
	Results []map[string]any `json:"results"`
	Total   int              `json:"total"`
}

// Service iterates the registry and runs the per-dataset pipeline:
// build query, execute, normalize, filter. Datasets are visited in
// registry order and the walk stops as soon as the limit is filled.
type Service struct {
	registry *dataset.Registry
	logger   *log.Logger
}

// NewService creates a search service over a loaded registry.
func NewService(registry *dataset.Registry) *Service {
	return &Service{
		registry: registry,
		logger:   log.ForComponent("search"),
	}
}

// Search executes one multi-criterion search across all datasets.
// Per-dataset failures are logged and skipped; an error from a MATCH
// query additionally degrades that dataset's FTS path for the rest of
// the process lifetime so the next request uses the LIKE fallback.
func (s *Service) Search(ctx context.Context, criteria []Criterion, limit, offset int) *Results {
	if len(criterionValues(criteria)) == 0 {
		return &Results{Results: []map[string]any{}, Total: 0}
	}

	safeLimit := limit
	if safeLimit < 1 {
		safeLimit = 1
	}
	if safeLimit > MaxLimit {
		safeLimit = MaxLimit
	}
	safeOffset := offset
	if safeOffset < 0 {
		safeOffset = 0
	}

	start := time.Now()
	all := []map[string]any{}
	needed := safeLimit

	for _, entry := range s.registry.Entries() {
		if needed <= 0 {
			break
		}

		rows, usedFTS, err := s.searchOne(ctx, entry, criteria, needed, safeOffset)
		if err != nil {
			if usedFTS {
				entry.DegradeFTS()
				s.logger.Warnf("%s: MATCH failed, degrading to LIKE fallback: %v", entry.Key, err)
			} else {
				s.logger.Warnf("%s: search error: %v", entry.Key, err)
			}
			continue
		}

		all = append(all, rows...)
		needed -= len(rows)
	}

	s.logger.Infof("search: %d criteria, %d datasets, %d results in %v",
		len(criteria), s.registry.Len(), len(all), time.Since(start).Round(time.Millisecond))

	return &Results{Results: all, Total: len(all)}
}

// searchOne runs the full pipeline against a single dataset. The
// second return value reports whether the query ran in MATCH mode.
func (s *Service) searchOne(ctx context.Context, entry *dataset.Entry, criteria []Criterion, limit, offset int) ([]map[string]any, bool, error) {
	q := BuildQuery(entry, criteria, limit, offset)
	if q == nil {
		return nil, false, nil
	}

	raw, err := queryRows(ctx, entry, q)
	if err != nil {
		return nil, q.UsesFTS, err
	}

	normalized := make([]map[string]any, len(raw))
	for i, row := range raw {
		normalized[i] = Normalize(row, entry.Key)
	}

	filtered := FilterByCriteria(normalized, criteria)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, q.UsesFTS, nil
}

// queryRows executes a query and scans every row into a column map.
// Column names come from the result set itself since dataset schemas
// are not known ahead of time.
func queryRows(ctx context.Context, entry *dataset.Entry, q *Query) ([]map[string]any, error) {
	rows, err := entry.DB().QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
