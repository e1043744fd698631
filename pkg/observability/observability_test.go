package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics(nil)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnSessionStart(ctx, &domain.StepEvent{})
	// Entering the cover on start is not a transition.
	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: 0, From: 0})
	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: 1, From: 0})
	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: 2, From: 1})
	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: 1, From: 2})
	hooks.OnSubmitFinished(ctx, &domain.SubmitEvent{Duration: 20 * time.Millisecond})
	hooks.OnSubmitFinished(ctx, &domain.SubmitEvent{Err: errors.New("boom")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepTransitions.WithLabelValues(observability.DirectionForward)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepTransitions.WithLabelValues(observability.DirectionBackward)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(observability.ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(observability.ResultFailure)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SubmissionDuration))
}

func TestMetrics_LoginAndHandler(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.ObserveLogin(true)
	m.ObserveLogin(false)
	m.ObserveLogin(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AdminLogins.WithLabelValues(observability.ResultFailure)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `bookclub_admin_logins_total{result="success"} 1`)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.OnSessionStart(ctx, &domain.StepEvent{EventBase: domain.EventBase{SessionID: "s1"}})
	hooks.OnSubmitFinished(ctx, &domain.SubmitEvent{EventBase: domain.EventBase{SessionID: "s1"}, Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "msg=session_start session_id=s1")
	assert.True(t, strings.Contains(out, "level=WARN msg=submit_finished"), out)
	assert.Contains(t, out, "error=boom")
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	shutdown, err := observability.NewTracerProvider(context.Background(), observability.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
