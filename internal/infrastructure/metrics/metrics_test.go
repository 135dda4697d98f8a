package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"checksheet-backend/internal/domain/record"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPersisted_Outcomes(t *testing.T) {
	m := New()
	m.Persisted(record.ActionSave, record.StatusDraft, nil, 10*time.Millisecond)
	m.Persisted(record.ActionSubmit, record.StatusNone, record.ErrIncomplete, time.Millisecond)
	m.Persisted(record.ActionSubmit, record.StatusNone, errors.New("db down"), time.Millisecond)
	m.Persisted(record.ActionSave, record.StatusNone, record.ErrNotEditable, time.Millisecond)

	tests := []struct {
		labels []string
		want   float64
	}{
		{[]string{"save", "draft", "ok"}, 1},
		{[]string{"submit", "none", "blocked"}, 1},
		{[]string{"submit", "none", "error"}, 1},
		{[]string{"save", "none", "conflict"}, 1},
	}
	for _, tc := range tests {
		if got := testutil.ToFloat64(m.persisted.WithLabelValues(tc.labels...)); got != tc.want {
			t.Fatalf("%v = %v, want %v", tc.labels, got, tc.want)
		}
	}
}

func TestHandler_ExposesHTTPMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, "/sessions/:id/save", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `checksheet_http_requests_total{code="200",method="POST",route="/sessions/:id/save"} 1`) {
		t.Fatalf("http counter missing:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("runtime collectors missing")
	}
}
