package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
)

type observation struct {
	method, route string
	status        int
}

type mockObserver struct {
	seen []observation
}

func (m *mockObserver) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.seen = append(m.seen, observation{method, route, status})
}

func TestInstrument_RecordsRouteTemplateAndStatus(t *testing.T) {
	obs := &mockObserver{}
	r := mux.NewRouter()
	r.Use(Instrument(obs, logger.NewNop()))
	r.HandleFunc("/trades/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trades/123", nil))

	require.Len(t, obs.seen, 1)
	assert.Equal(t, observation{http.MethodGet, "/trades/{id}", http.StatusNotFound}, obs.seen[0])
}

func TestInstrument_DefaultsToOK(t *testing.T) {
	obs := &mockObserver{}
	handler := Instrument(obs, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, obs.seen, 1)
	assert.Equal(t, http.StatusOK, obs.seen[0].status)
	assert.Equal(t, "unmatched", obs.seen[0].route)
}
