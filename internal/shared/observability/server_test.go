package observability

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServer_ServesMetrics(t *testing.T) {
	FilesScannedTotal.Inc()

	s := NewMetricsServer("127.0.0.1:0")
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "esmfix_files_scanned_total")

	health, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
	assert.GreaterOrEqual(t, testutil.ToFloat64(FilesScannedTotal), 1.0)
}
