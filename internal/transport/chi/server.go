// Package chi exposes the retrieval service over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/mode"
	"github.com/sashaklochko/statista-context/internal/domain/search/request"
	healthuc "github.com/sashaklochko/statista-context/internal/usecase/health"
	retrieveuc "github.com/sashaklochko/statista-context/internal/usecase/retrieve"
	"github.com/sashaklochko/statista-context/internal/version"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeEmbeddingError   = "embedding_provider_error"
	codeIndexUnavailable = "index_unavailable"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the HTTP API.
type Server struct {
	retrieve      *retrieveuc.Service
	health        *healthuc.Service
	serviceName   string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieve *retrieveuc.Service,
	health *healthuc.Service,
	serviceName string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		retrieve:    retrieve,
		health:      health,
		serviceName: serviceName,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrQueryTooLong, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidSearchType, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidLimit, http.StatusBadRequest, codeValidationFailed),
		// Index availability outranks the embedding cause: a hybrid aggregate
		// failure carries both sentinels and must map to 503.
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, codeEmbeddingError),
	}
	return s
}

// RegisterRoutes mounts API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/ready", s.Ready)
	r.Get("/metrics", s.Metrics)
	r.Post("/forward-context", s.ForwardContext)
}

// ForwardContext handles POST /forward-context.
func (s *Server) ForwardContext(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := request.New(req.Query, mode.Mode(req.SearchType), req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.retrieve.Retrieve(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responseToJSON(&resp))
}

// Ready handles GET /ready.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	st := s.health.Ready(r.Context())

	status := "ready"
	httpStatus := http.StatusOK
	if !st.Ready {
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, readyResponse{
		Status: status,
		Checks: st.Checks,
	})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Service: s.serviceName,
		Version: version.Version,
		Status:  "running",
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation sentinels carry their wrapped detail (the offending value); the
// rest return only the sentinel text.
func safeDomainMessage(err error) string {
	validation := []error{
		domain.ErrEmptyQuery,
		domain.ErrQueryTooLong,
		domain.ErrInvalidSearchType,
		domain.ErrInvalidLimit,
	}
	for _, s := range validation {
		if errors.Is(err, s) {
			return err.Error()
		}
	}

	opaque := []error{
		domain.ErrIndexUnavailable,
		domain.ErrEmbedding,
	}
	for _, s := range opaque {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
