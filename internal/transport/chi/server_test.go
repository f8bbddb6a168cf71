package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tributa-cloud/tributa/internal/domain/search/candidate"
	"github.com/tributa-cloud/tributa/internal/domain/search/mode"
	"github.com/tributa-cloud/tributa/internal/domain/search/request"
	"github.com/tributa-cloud/tributa/internal/domain/search/scored"
	healthuc "github.com/tributa-cloud/tributa/internal/usecase/health"
)

type stubRetriever struct {
	results []scored.Result

	lastQuery     *request.Query
	lastRefTime   time.Time
	lastThreshold int
	lastMeta      map[string]string
	reviewCalls   int
}

func (s *stubRetriever) RetrieveTopK(_ context.Context, q *request.Query) []scored.Result {
	s.lastQuery = q
	return s.results
}

func (s *stubRetriever) FetchRecentChangesForReview(
	_ context.Context, q *request.Query, refTime time.Time,
	threshold int, meta map[string]string,
) []scored.Result {
	s.reviewCalls++
	s.lastQuery = q
	s.lastRefTime = refTime
	s.lastThreshold = threshold
	s.lastMeta = meta
	return s.results
}

type stubHealth struct {
	report healthuc.Report
}

func (s *stubHealth) Check(context.Context) healthuc.Report { return s.report }

func newTestRouter(ret Retriever, h HealthChecker) http.Handler {
	r := chirouter.NewRouter()
	NewServer(ret, h, zap.NewNop()).Routes(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleResults() []scored.Result {
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return []scored.Result{
		{
			Candidate: candidate.Candidate{
				ID:        "tributa:kb:circ-64-2024",
				Title:     "Circolare n. 64/2024",
				Content:   "Chiarimenti IVA.",
				Category:  "circolare",
				Source:    "agenzia_entrate/circolari",
				Tier:      2,
				UpdatedAt: &updated,
			},
			NormLexical: 1.0,
			NormVector:  0.8,
			Recency:     0.9,
			Quality:     0.92,
			Authority:   1.0,
			Combined:    0.95,
			Rank:        1,
		},
	}
}

func TestHandleSearch_OK(t *testing.T) {
	ret := &stubRetriever{results: sampleResults()}
	router := newTestRouter(ret, &stubHealth{})

	rr := postJSON(t, router, "/api/v1/search", searchRequest{
		Query: "aliquote iva ridotte",
		TopK:  5,
		Mode:  "hybrid",
		Filters: &filtersDTO{
			Category: "circolare",
			Source:   "agenzia_entrate",
			Year:     2024,
			Topics:   []string{"iva"},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("total/items = %d/%d", resp.Total, len(resp.Items))
	}
	item := resp.Items[0]
	if item.ID != "tributa:kb:circ-64-2024" || item.Rank != 1 {
		t.Errorf("item = %+v", item)
	}
	if item.Score != 0.95 || item.Breakdown.Lexical != 1.0 {
		t.Errorf("scores = %v / %+v", item.Score, item.Breakdown)
	}

	q := ret.lastQuery
	if q == nil {
		t.Fatal("retriever not called")
	}
	if q.TopK() != 5 || q.Mode() != mode.Hybrid {
		t.Errorf("query topK/mode = %d/%s", q.TopK(), q.Mode())
	}
	f := q.Filters()
	if f.Category != "circolare" || f.SourcePattern != "agenzia_entrate" || f.Year != 2024 {
		t.Errorf("filters = %+v", f)
	}
}

func TestHandleSearch_Defaults(t *testing.T) {
	ret := &stubRetriever{}
	router := newTestRouter(ret, &stubHealth{})

	rr := postJSON(t, router, "/api/v1/search", searchRequest{Query: "regime forfettario"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	if ret.lastQuery.TopK() != request.DefaultTopK {
		t.Errorf("topK = %d, want default %d", ret.lastQuery.TopK(), request.DefaultTopK)
	}
	if ret.lastQuery.Mode() != mode.Hybrid {
		t.Errorf("mode = %s, want hybrid", ret.lastQuery.Mode())
	}
}

func TestHandleSearch_EmptyResults(t *testing.T) {
	router := newTestRouter(&stubRetriever{}, &stubHealth{})

	rr := postJSON(t, router, "/api/v1/search", searchRequest{Query: "argomento sconosciuto"})
	if rr.Code != http.StatusOK {
		t.Fatalf("empty result set must still be 200, got %d", rr.Code)
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 0 || resp.Items == nil {
		t.Errorf("expected empty items array, got %+v", resp)
	}
}

func TestHandleSearch_ValidationFailed(t *testing.T) {
	router := newTestRouter(&stubRetriever{}, &stubHealth{})

	rr := postJSON(t, router, "/api/v1/search", searchRequest{Query: ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, codeValidationFailed)
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	router := newTestRouter(&stubRetriever{}, &stubHealth{})

	req := httptest.NewRequest("POST", "/api/v1/search", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHandleReview_OK(t *testing.T) {
	ret := &stubRetriever{results: sampleResults()}
	router := newTestRouter(ret, &stubHealth{})

	refTime := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rr := postJSON(t, router, "/api/v1/review", reviewRequest{
		searchRequest: searchRequest{Query: "aliquote iva"},
		ReferenceTime: &refTime,
		ThresholdDays: 14,
		ReferenceMeta: map[string]string{"category": "circolare"},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ret.reviewCalls != 1 {
		t.Fatalf("review calls = %d", ret.reviewCalls)
	}
	if !ret.lastRefTime.Equal(refTime) {
		t.Errorf("refTime = %v", ret.lastRefTime)
	}
	if ret.lastThreshold != 14 {
		t.Errorf("threshold = %d", ret.lastThreshold)
	}
	if ret.lastMeta["category"] != "circolare" {
		t.Errorf("meta = %v", ret.lastMeta)
	}
}

func TestHandleReview_DefaultThreshold(t *testing.T) {
	ret := &stubRetriever{}
	router := newTestRouter(ret, &stubHealth{})

	rr := postJSON(t, router, "/api/v1/review", reviewRequest{
		searchRequest: searchRequest{Query: "aliquote iva"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ret.lastThreshold != defaultReviewThresholdDays {
		t.Errorf("threshold = %d, want %d", ret.lastThreshold, defaultReviewThresholdDays)
	}
	if !ret.lastRefTime.IsZero() {
		t.Errorf("refTime should be zero when absent, got %v", ret.lastRefTime)
	}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		report     healthuc.Report
		wantStatus int
	}{
		{
			"healthy",
			healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{
				"database": healthuc.CheckOK,
			}},
			http.StatusOK,
		},
		{
			"degraded",
			healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{
				"database": healthuc.CheckError,
			}},
			http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubRetriever{}, &stubHealth{report: tc.report})

			req := httptest.NewRequest("GET", "/health", http.NoBody)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
		})
	}
}

func TestHandleMetrics(t *testing.T) {
	router := newTestRouter(&stubRetriever{}, &stubHealth{})

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
