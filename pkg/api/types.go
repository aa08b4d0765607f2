package api

import "github.com/dredgelabs/dredge/pkg/search"

// SearchRequest is the POST /search body. Criteria stays nil when the
// field is absent from the JSON, which is how the handler tells a
// missing array (400) from an empty one (200 with no results).
type SearchRequest struct {
	Criteria []search.Criterion `json:"criteria"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

type SearchResponse struct {
	Results []map[string]any `json:"results"`
	Total   int              `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Databases int      `json:"databases"`
	Names     []string `json:"names"`
}

// DatasetInfo describes one loaded dataset for the /info endpoint.
type DatasetInfo struct {
	Key        string   `json:"key"`
	Filename   string   `json:"filename"`
	Table      string   `json:"table"`
	Columns    []string `json:"columns"`
	IsFts      bool     `json:"isFts"`
	FtsHealthy bool     `json:"ftsHealthy"`
}

type InfoResponse struct {
	Version   string        `json:"version"`
	Databases []DatasetInfo `json:"databases"`
}
