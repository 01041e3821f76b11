package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// stubHandlers answers every route with a header naming the handler, so
// tests can check which one the router picked.
type stubHandlers struct{}

func named(name string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", name)
		if id := chi.URLParam(r, "planId"); id != "" {
			w.Header().Set("X-Plan", id)
		}
		w.WriteHeader(http.StatusTeapot)
	}
}

func (stubHandlers) Reserve(w http.ResponseWriter, r *http.Request)        { named("reserve")(w, r) }
func (stubHandlers) PreviewPlan(w http.ResponseWriter, r *http.Request)    { named("plan")(w, r) }
func (stubHandlers) GetReservation(w http.ResponseWriter, r *http.Request) { named("get")(w, r) }
func (stubHandlers) Cancel(w http.ResponseWriter, r *http.Request)         { named("cancel")(w, r) }
func (stubHandlers) Fulfill(w http.ResponseWriter, r *http.Request)        { named("fulfill")(w, r) }
func (stubHandlers) Intake(w http.ResponseWriter, r *http.Request)         { named("intake")(w, r) }
func (stubHandlers) ListBatches(w http.ResponseWriter, r *http.Request)    { named("batches")(w, r) }
func (stubHandlers) HandleSearchProducts(w http.ResponseWriter, r *http.Request) {
	named("search")(w, r)
}
func (stubHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) { named("import")(w, r) }

func newStubRouter(metrics http.Handler) http.Handler {
	h := stubHandlers{}
	return NewRouter(Routes{Inventory: h, Products: h, Imports: h, Metrics: metrics}, zap.NewNop())
}

func TestRouter_Routes(t *testing.T) {
	router := newStubRouter(nil)

	tests := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/v1/reservations", "reserve"},
		{http.MethodGet, "/api/v1/reservations/p1", "get"},
		{http.MethodPost, "/api/v1/reservations/p1/cancel", "cancel"},
		{http.MethodPost, "/api/v1/reservations/p1/fulfill", "fulfill"},
		{http.MethodPost, "/api/v1/plans", "plan"},
		{http.MethodPost, "/api/v1/intake", "intake"},
		{http.MethodGet, "/api/v1/products/1/warehouses/2/batches", "batches"},
		{http.MethodPost, "/api/v1/products/search", "search"},
		{http.MethodPost, "/api/v1/warehouses/2/imports", "import"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

		assert.Equal(t, http.StatusTeapot, rec.Code, tt.path)
		assert.Equal(t, tt.want, rec.Header().Get("X-Handler"), tt.path)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reservations/p1/cancel", nil))
	assert.Equal(t, "p1", rec.Header().Get("X-Plan"))
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newStubRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_MetricsOnlyWhenEnabled(t *testing.T) {
	rec := httptest.NewRecorder()
	newStubRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pharmastock_up 1"))
	})
	rec = httptest.NewRecorder()
	newStubRouter(metrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pharmastock_up")
}

type panickingInventory struct{ stubHandlers }

func (panickingInventory) Reserve(http.ResponseWriter, *http.Request) { panic("boom") }

func TestRouter_RecoversFromPanics(t *testing.T) {
	h := stubHandlers{}
	router := NewRouter(Routes{Inventory: panickingInventory{}, Products: h, Imports: h}, zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_UnknownMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newStubRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/reservations", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
