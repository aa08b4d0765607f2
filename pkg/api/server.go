package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/dredgelabs/dredge/pkg/dataset"
	"github.com/dredgelabs/dredge/pkg/log"
	"github.com/dredgelabs/dredge/pkg/search"
)

// Server is the thin HTTP wrapper around the search service. It owns
// no state beyond the registry handle and the shared secret.
type Server struct {
	registry *dataset.Registry
	service  *search.Service
	secret   string
	logger   *log.Logger
}

// NewServer creates the endpoint layer over a loaded registry.
func NewServer(registry *dataset.Registry, secret string) *Server {
	return &Server{
		registry: registry,
		service:  search.NewService(registry),
		secret:   secret,
		logger:   log.ForComponent("api"),
	}
}

// Handler returns the complete HTTP handler: routes plus gzip
// compression for the JSON payloads.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return gzhttp.GzipHandler(mux)
}

// RegisterRoutes wires the bridge's routes onto a mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /search", s.requireSecret(s.HandleSearch))
	mux.HandleFunc("GET /info", s.requireSecret(s.HandleInfo))
	mux.HandleFunc("GET /health", s.HandleHealth)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

// requireSecret rejects requests whose X-Bridge-Secret header does not
// match the configured secret. The comparison is constant-time and the
// error body never mentions what is loaded.
func (s *Server) requireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get("X-Bridge-Secret")
		if s.secret == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(s.secret)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}
