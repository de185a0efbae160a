package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.ObserveOutcome("register", "")
	r.ObserveOutcome("register", "")
	r.ObserveOutcome("register", "AlreadyRegistered")
	r.ObserveTransaction("castVote", "", 2*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.outcomes.WithLabelValues("register", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.outcomes.WithLabelValues("register", "AlreadyRegistered")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.transactions))
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder()
	r.ObserveOutcome("vote", "PartialCommit")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ballot_operations_total{operation="vote",outcome="PartialCommit"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
