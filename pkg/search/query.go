// Package search implements the search pipeline: per-dataset query
// building (FTS MATCH or LIKE fallback), row normalization through the
// line parser, criteria re-filtering, and the orchestrator that walks
// the registry and merges results.
package search

import (
	"fmt"
	"strings"

	"github.com/dredgelabs/dredge/pkg/dataset"
)

// Criterion is one typed, user-supplied search term. Criteria in a
// request are implicitly AND-ed.
type Criterion struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Query is a dataset-appropriate SQL query ready to execute.
type Query struct {
	SQL  string
	Args []any
	// UsesFTS marks MATCH-mode queries; an execution error on one of
	// these degrades the dataset's FTS path permanently.
	UsesFTS bool
}

// fetchLimit over-fetches above the caller's page size because the
// criteria filter runs after retrieval and discards rows.
func fetchLimit(limit int) int {
	n := limit * 5
	if n < 100 {
		n = 100
	}
	return n
}

// BuildQuery produces the query for one dataset, or nil when the
// dataset cannot serve this request (no non-empty criterion values, or
// no table usable for the LIKE fallback).
func BuildQuery(e *dataset.Entry, criteria []Criterion, limit, offset int) *Query {
	values := criterionValues(criteria)
	if len(values) == 0 {
		return nil
	}

	if e.FTSHealthy() {
		return buildMatchQuery(e, values, limit, offset)
	}
	return buildLikeQuery(e, values, limit, offset)
}

// buildMatchQuery AND-s all terms inside a single MATCH expression:
// FTS5 treats space-separated quoted terms as an implicit AND.
func buildMatchQuery(e *dataset.Entry, values []string, limit, offset int) *Query {
	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}

	sql := fmt.Sprintf(
		`SELECT * FROM %q WHERE %q MATCH ? ORDER BY rank LIMIT ? OFFSET ?`,
		e.TableName, e.TableName,
	)

	return &Query{
		SQL:     sql,
		Args:    []any{strings.Join(terms, " "), fetchLimit(limit), offset},
		UsesFTS: true,
	}
}

// buildLikeQuery OR-s a LIKE containment test across every column for
// each criterion value, AND-ing across values. Case sensitivity is
// whatever SQLite's default LIKE collation gives; values are bound
// as-is on purpose.
func buildLikeQuery(e *dataset.Entry, values []string, limit, offset int) *Query {
	table := e.FallbackTable
	cols := e.FallbackColumns
	if table == "" || len(cols) == 0 {
		return nil
	}

	// For FTS datasets the fallback table is the content shadow, whose
	// columns are c0, c1, ...; alias them back to the declared names so
	// both query paths return identically shaped rows.
	selectList := "*"
	if e.IsFTS && len(e.Columns) == len(cols) {
		aliased := make([]string, len(cols))
		for i, c := range cols {
			aliased[i] = fmt.Sprintf(`%q AS %q`, c, e.Columns[i])
		}
		selectList = strings.Join(aliased, ", ")
	}

	var conditions []string
	var args []any
	for _, v := range values {
		orParts := make([]string, len(cols))
		for i, c := range cols {
			orParts[i] = fmt.Sprintf(`%q LIKE ?`, c)
			args = append(args, "%"+v+"%")
		}
		conditions = append(conditions, "("+strings.Join(orParts, " OR ")+")")
	}

	sql := fmt.Sprintf(
		`SELECT %s FROM %q WHERE %s LIMIT ? OFFSET ?`,
		selectList, table, strings.Join(conditions, " AND "),
	)
	args = append(args, fetchLimit(limit), offset)

	return &Query{SQL: sql, Args: args}
}

// criterionValues returns the trimmed, non-empty values of all criteria.
func criterionValues(criteria []Criterion) []string {
	var values []string
	for _, c := range criteria {
		if v := strings.TrimSpace(c.Value); v != "" {
			values = append(values, v)
		}
	}
	return values
}
