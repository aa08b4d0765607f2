package search

import (
	"fmt"
	"strings"

	"github.com/dredgelabs/dredge/pkg/parse"
)

// Normalize maps one raw result row into the canonical shape returned
// to callers. Rows with a recognizable line/content column are routed
// through the line parser and flattened; structured rows pass through
// with their original columns. Every row is tagged with its dataset key.
func Normalize(raw map[string]any, datasetKey string) map[string]any {
	line := fieldCI(raw, "line", "data", "content", "c1")
	source := fieldCI(raw, "source")

	if line != "" {
		parsed := parse.Line(line, source)
		out := make(map[string]any, len(parsed)+2)
		out["_source"] = datasetKey
		out["_raw"] = line
		for k, v := range parsed {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(raw)+1)
	out["_source"] = datasetKey
	for k, v := range raw {
		if strings.ToLower(k) == "rownum" {
			continue
		}
		out[k] = v
	}
	return out
}

// fieldCI finds the first non-empty value among candidate column
// names, matching case-insensitively. Dump exports disagree on column
// casing, so "Line", "LINE" and "line" are all the same column here.
func fieldCI(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	for _, k := range keys {
		for rk, v := range row {
			if strings.EqualFold(rk, k) {
				if s := stringValue(v); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}
