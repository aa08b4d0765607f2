package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dredgelabs/dredge/pkg/search"
	"github.com/dredgelabs/dredge/pkg/version"
)

// HandleSearch executes one multi-criterion search. Malformed bodies
// and a missing criteria array are the caller's fault (400); an empty
// criteria array is a valid no-op and returns an empty result set.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Criteria == nil {
		s.writeError(w, http.StatusBadRequest, "criteria array required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	requestID := uuid.NewString()[:8]
	results := s.service.Search(r.Context(), req.Criteria, limit, req.Offset)

	// Only criterion types go to the log, never the values.
	s.logger.Infof("[%s] search %s -> %d results",
		requestID, criterionTypes(req.Criteria), results.Total)

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Results: results.Results,
		Total:   results.Total,
	})
}

// HandleHealth reports liveness and the loaded dataset keys. No auth:
// the enclosing application probes this before routing searches.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Keys()
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Databases: s.registry.Len(),
		Names:     names,
	})
}

// HandleInfo returns the full dataset inventory for diagnostics.
func (s *Server) HandleInfo(w http.ResponseWriter, r *http.Request) {
	infos := make([]DatasetInfo, 0, s.registry.Len())
	for _, e := range s.registry.Entries() {
		infos = append(infos, DatasetInfo{
			Key:        e.Key,
			Filename:   e.Filename,
			Table:      e.TableName,
			Columns:    e.Columns,
			IsFts:      e.IsFTS,
			FtsHealthy: e.FTSHealthy(),
		})
	}
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Version:   version.APIVersion(),
		Databases: infos,
	})
}

func criterionTypes(criteria []search.Criterion) string {
	types := make([]string, len(criteria))
	for i, c := range criteria {
		types[i] = c.Type
	}
	return strings.Join(types, ",")
}
