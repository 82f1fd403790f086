package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	before := testutil.ToFloat64(metrics.ConnectsTotal.WithLabelValues(metrics.OutcomeSuccess))
	metrics.ConnectsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	require.Equal(t, before+1, testutil.ToFloat64(metrics.ConnectsTotal.WithLabelValues(metrics.OutcomeSuccess)))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "geohop_connects_total"))
}
