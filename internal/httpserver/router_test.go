package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resops/internal/handler"
	"resops/pkg/reqid"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	return NewRouter(
		handler.NewProjectHandler(nil, nil, log),
		handler.NewTimelineHandler(nil, log),
		handler.NewModeratorHandler(nil, nil, log),
		handler.NewVendorHandler(nil, log),
		log, nil, nil,
	)
}

func TestRouterRegistersRoutes(t *testing.T) {
	r := newTestRouter()

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /readyz",
		"GET /metrics",
		"POST /timeline/validate",
		"GET /projects/:id/phase",
		"PUT /projects/:id/timeline/edit",
		"GET /projects/:id/deadlines",
		"POST /projects/:id/deadlines",
		"DELETE /projects/:id/deadlines/:label",
		"POST /projects/:id/assign-moderator",
		"POST /projects/:id/archive",
		"POST /moderators/:id/availability",
		"POST /moderators/:id/schedule",
		"DELETE /moderators/:id/schedule/:entry_id",
		"PUT /vendors/:id",
	}
	for _, w := range want {
		if !registered[w] {
			t.Errorf("route %q not registered", w)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Version   string `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Status != "ok" || body.Version != Version || body.Timestamp == "" {
		t.Fatalf("body = %+v", body)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newTestRouter()

	// 入站没有就生成一个
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get(reqid.HeaderName) == "" {
		t.Fatal("response missing generated request id")
	}

	// 入站已有的原样回传
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(reqid.HeaderName, "fixed-id-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(reqid.HeaderName); got != "fixed-id-123" {
		t.Fatalf("request id = %q, want fixed-id-123", got)
	}
}
