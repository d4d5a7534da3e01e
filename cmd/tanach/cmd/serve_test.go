package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/telemetry"
)

func TestServeCmd_RequiresCorpus(t *testing.T) {
	// Given: no corpus
	dir := isolate(t)

	// When: starting the server with a temp log file
	_, _, err := execute(t, "serve", "--log-file", filepath.Join(dir, "server.log"))

	// Then: it fails before taking over stdio
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorpusUnavailable, errors.GetCode(err))
	assert.FileExists(t, filepath.Join(dir, "server.log"))
}

func TestNewMetricsServer_ExposesSearchMetrics(t *testing.T) {
	// Given: search metrics registered on a private registry
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewSearchMetrics(telemetry.Config{Registerer: reg})
	require.NoError(t, err)
	metrics.Record(telemetry.SearchEvent{Query: "אור", Mode: telemetry.ModeLiteral, Status: telemetry.StatusOK, Results: 2})

	// When: scraping /metrics
	srv := newMetricsServer("127.0.0.1:0", reg)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Then: the tanach collectors are present
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tanach_searches_total")
}
