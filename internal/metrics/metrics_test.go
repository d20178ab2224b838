package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func counterSum(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, mt := range mf.GetMetric() {
			sum += mt.GetCounter().GetValue()
		}
	}
	return sum
}

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveGrade("multiple_partial", "gradedright")
	m.ObserveGrade("multiple_partial", "gradedwrong")
	m.ObserveValidation("single", "")
	if got := counterSum(t, m, "mcsaon_gradings_total"); got != 2 {
		t.Fatalf("gradings = %v", got)
	}
	if got := counterSum(t, m, "mcsaon_validations_total"); got != 1 {
		t.Fatalf("validations = %v", got)
	}

	var nilM *Metrics
	nilM.ObserveGrade("x", "y")
	nilM.ObserveValidation("x", "y")
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/questions/{id}", func(w http.ResponseWriter, r *http.Request) {})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/questions/"+id, nil))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	want := `http_requests_total{endpoint="/questions/{id}",method="GET",status="200"} 2`
	if !strings.Contains(string(body), want) {
		t.Fatalf("missing %q in\n%s", want, body)
	}
}
