package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	s := New()
	rec := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyEndpoint_ReadyFlag(t *testing.T) {
	s := New()
	s.SetReady(true)
	require.Equal(t, http.StatusOK, probe(t, s.ReadyEndpoint).Code)

	s.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, probe(t, s.ReadyEndpoint).Code)
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	s.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, time.Hour)
	defer s.Stop()

	// Start runs all checks once synchronously before the ticker loop; give
	// the goroutine a moment to finish the first pass.
	require.Eventually(t, func() bool {
		return probe(t, s.ReadyEndpoint).Code == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)

	rec := probe(t, s.ReadyEndpoint)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestLiveEndpoint_HealthyChecks(t *testing.T) {
	s := New()
	s.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, time.Hour)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return probe(t, s.LiveEndpoint).Code == http.StatusOK
	}, time.Second, 10*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
