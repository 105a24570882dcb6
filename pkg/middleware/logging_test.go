package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/antoniojosev/crm-satoru/pkg/logger"
)

func TestRequestLoggerEnrichedWithTraceContext(t *testing.T) {
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(Tracing("satoru-admin-test"))
	r.Use(RequestLogging(base))
	r.Use(RequestLogger(base))
	r.Get("/api/v1/projects", func(w http.ResponseWriter, req *http.Request) {
		logger.FromContext(req.Context()).Info("handled")
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The handler's entry is written before the access log line.
	var entry map[string]any
	require.NoError(t, json.NewDecoder(&buf).Decode(&entry))
	assert.Equal(t, "handled", entry["msg"])
	assert.NotEmpty(t, entry["correlation_id"])
	assert.NotEmpty(t, entry["trace_id"], "request-scoped logger must see the active span")
	assert.NotEmpty(t, entry["span_id"])
}
