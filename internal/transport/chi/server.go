// Package chi exposes the retrieval engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tributa-cloud/tributa/internal/domain/search/filters"
	"github.com/tributa-cloud/tributa/internal/domain/search/mode"
	"github.com/tributa-cloud/tributa/internal/domain/search/request"
	"github.com/tributa-cloud/tributa/internal/domain/search/scored"
	healthuc "github.com/tributa-cloud/tributa/internal/usecase/health"
)

// defaultReviewThresholdDays bounds the review window when the caller does
// not supply one.
const defaultReviewThresholdDays = 30

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
)

// Retriever is the retrieval port consumed by the HTTP layer (ISP).
type Retriever interface {
	RetrieveTopK(ctx context.Context, q *request.Query) []scored.Result
	FetchRecentChangesForReview(
		ctx context.Context, q *request.Query, referenceTime time.Time,
		thresholdDays int, referenceMeta map[string]string,
	) []scored.Result
}

// HealthChecker is the health port consumed by the HTTP layer.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server handles the HTTP API: search, review, health and metrics.
type Server struct {
	retrieval Retriever
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(retrieval Retriever, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		retrieval: retrieval,
		health:    health,
		logger:    logger,
	}
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/review", s.handleReview)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

// searchRequest is the POST /api/v1/search body.
type searchRequest struct {
	Query        string      `json:"query"`
	Facts        []string    `json:"facts,omitempty"`
	ConvoSummary string      `json:"convo_summary,omitempty"`
	TopK         int         `json:"top_k,omitempty"`
	Mode         string      `json:"mode,omitempty"`
	Filters      *filtersDTO `json:"filters,omitempty"`
}

type filtersDTO struct {
	Category      string   `json:"category,omitempty"`
	Source        string   `json:"source,omitempty"`
	TitlePatterns []string `json:"title_patterns,omitempty"`
	Year          int      `json:"year,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

// reviewRequest is the POST /api/v1/review body. The reference fields
// describe the previously cached answer under review.
type reviewRequest struct {
	searchRequest
	ReferenceTime *time.Time        `json:"reference_time,omitempty"`
	ThresholdDays int               `json:"threshold_days,omitempty"`
	ReferenceMeta map[string]string `json:"reference_meta,omitempty"`
}

type searchResponse struct {
	Items []resultItem `json:"items"`
	Total int          `json:"total"`
}

type resultItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
	Tier     int    `json:"tier,omitempty"`

	Score     float64    `json:"score"`
	Rank      int        `json:"rank"`
	Conflict  bool       `json:"conflict,omitempty"`
	Breakdown scoresDTO  `json:"scores"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Published *time.Time `json:"published_at,omitempty"`
}

type scoresDTO struct {
	Lexical   float64 `json:"lexical"`
	Vector    float64 `json:"vector"`
	Recency   float64 `json:"recency"`
	Quality   float64 `json:"quality"`
	Authority float64 `json:"authority"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := queryFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results := s.retrieval.RetrieveTopK(r.Context(), &q)
	writeJSON(w, http.StatusOK, resultsToResponse(results))
}

// handleReview handles POST /api/v1/review.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := queryFromRequest(&req.searchRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	threshold := req.ThresholdDays
	if threshold <= 0 {
		threshold = defaultReviewThresholdDays
	}
	var refTime time.Time
	if req.ReferenceTime != nil {
		refTime = *req.ReferenceTime
	}

	results := s.retrieval.FetchRecentChangesForReview(
		r.Context(), &q, refTime, threshold, req.ReferenceMeta)
	writeJSON(w, http.StatusOK, resultsToResponse(results))
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	}
	if report.Documents > 0 {
		body["documents"] = report.Documents
	}
	writeJSON(w, status, body)
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func queryFromRequest(req *searchRequest) (request.Query, error) {
	var f filters.Filters
	if req.Filters != nil {
		f = filters.Filters{
			Category:      req.Filters.Category,
			SourcePattern: req.Filters.Source,
			TitlePatterns: req.Filters.TitlePatterns,
			Year:          req.Filters.Year,
			Topics:        req.Filters.Topics,
		}
	}
	return request.New(
		req.Query, req.Facts, req.ConvoSummary, req.TopK, mode.Mode(req.Mode), f)
}

func resultsToResponse(results []scored.Result) searchResponse {
	items := make([]resultItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}
	return searchResponse{Items: items, Total: len(items)}
}

func resultToItem(r *scored.Result) resultItem {
	return resultItem{
		ID:       r.Candidate.ID,
		Title:    r.Candidate.Title,
		Content:  r.Candidate.Content,
		Category: r.Candidate.Category,
		Source:   r.Candidate.Source,
		Tier:     r.Candidate.Tier,
		Score:    r.Combined,
		Rank:     r.Rank,
		Conflict: r.Conflict,
		Breakdown: scoresDTO{
			Lexical:   r.NormLexical,
			Vector:    r.NormVector,
			Recency:   r.Recency,
			Quality:   r.Quality,
			Authority: r.Authority,
		},
		UpdatedAt: r.Candidate.UpdatedAt,
		Published: r.Candidate.PublishedAt,
	}
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
