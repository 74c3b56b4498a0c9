package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	before := testutil.ToFloat64(DecisionsTotal.WithLabelValues("like"))
	DecisionsTotal.WithLabelValues("like").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DecisionsTotal.WithLabelValues("like")))

	MatchesCreatedTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "matchbot_swipe_decisions_total"))
	assert.True(t, strings.Contains(body, "matchbot_match_created_total"))
}
