package flow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bookclub/pkg/adapters/memory"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
	"github.com/aretw0/bookclub/pkg/ports"
	"github.com/aretw0/bookclub/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, ins ports.Inserter, opts ...flow.ServiceOption) (*flow.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc, err := flow.NewService(flow.DefaultScript(), session.NewManager(store), ins, opts...)
	require.NoError(t, err)
	return svc, store
}

func advanceTo(t *testing.T, svc *flow.Service, id string, step int) flow.View {
	t.Helper()
	v, err := svc.View(context.Background(), id)
	require.NoError(t, err)
	for v.Step < step {
		v, err = svc.Advance(context.Background(), id)
		require.NoError(t, err)
	}
	return v
}

func TestService_StartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	var starts int
	svc, _ := newService(t, memory.NewRecordStore(), flow.WithHooks(domain.LifecycleHooks{
		OnSessionStart: func(context.Context, *domain.StepEvent) { starts++ },
	}))

	v, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Step)

	_, err = svc.Advance(ctx, "s1")
	require.NoError(t, err)

	v, err = svc.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Step, "start resumes an existing session")
	assert.Equal(t, 1, starts)
}

func TestService_UnknownSession(t *testing.T) {
	svc, _ := newService(t, memory.NewRecordStore())
	_, err := svc.Advance(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_FullFlow(t *testing.T) {
	ctx := context.Background()
	records := memory.NewRecordStore()

	var (
		mu    sync.Mutex
		diffs []*domain.StateDiff
		steps []int
	)
	svc, store := newService(t, records,
		flow.WithChangeListener(func(_ context.Context, d *domain.StateDiff) {
			mu.Lock()
			diffs = append(diffs, d)
			mu.Unlock()
		}),
		flow.WithHooks(domain.LifecycleHooks{
			OnStepEnter: func(_ context.Context, e *domain.StepEvent) { steps = append(steps, e.Step) },
		}),
	)

	_, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = svc.SetField(ctx, "s1", domain.FieldPhone, "11987654321")
	require.NoError(t, err)

	last := svc.Script().LastQuestion()
	v := advanceTo(t, svc, "s1", last)
	assert.True(t, v.CanSubmit)

	v, err = svc.Submit(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, svc.Script().Terminal(), v.Step)
	assert.True(t, v.Submitted)
	assert.False(t, v.Busy)

	stored, err := records.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "(11) 98765-4321", stored[0].Phone)

	persisted, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, persisted.Submitted)
	assert.False(t, persisted.Submitting)

	assert.Equal(t, 0, steps[0])
	assert.Equal(t, svc.Script().Terminal(), steps[len(steps)-1])
	assert.NotEmpty(t, diffs)
}

func TestService_SubmitFailure(t *testing.T) {
	ctx := context.Background()
	ins := &stubInserter{err: errors.New("boom")}

	var finished *domain.SubmitEvent
	svc, _ := newService(t, ins, flow.WithHooks(domain.LifecycleHooks{
		OnSubmitFinished: func(_ context.Context, e *domain.SubmitEvent) { finished = e },
	}))
	_, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	advanceTo(t, svc, "s1", svc.Script().LastQuestion())

	v, err := svc.Submit(ctx, "s1")
	assert.ErrorIs(t, err, flow.ErrSubmissionFailed)
	assert.Equal(t, svc.Script().LastQuestion(), v.Step)
	assert.False(t, v.Busy)
	assert.Equal(t, flow.SubmitFailureNotice, v.Notice)
	require.NotNil(t, finished)
	assert.True(t, finished.Failed())
}

func TestService_ConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	ins := &stubInserter{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc, _ := newService(t, ins)
	_, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	advanceTo(t, svc, "s1", svc.Script().LastQuestion())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1")
		done <- err
	}()
	<-ins.entered

	v, err := svc.Submit(ctx, "s1")
	assert.ErrorIs(t, err, flow.ErrSubmissionInFlight)
	assert.True(t, v.Busy)

	close(ins.gate)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), ins.calls.Load())
}

func TestService_SlowSubmitOutlivesLease(t *testing.T) {
	ctx := context.Background()
	ins := &stubInserter{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc, _ := newService(t, ins, flow.WithSubmitLease(10*time.Millisecond))
	_, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	advanceTo(t, svc, "s1", svc.Script().LastQuestion())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1")
		done <- err
	}()
	<-ins.entered
	time.Sleep(50 * time.Millisecond)

	v, err := svc.Submit(ctx, "s1")
	assert.ErrorIs(t, err, flow.ErrSubmissionInFlight)
	assert.True(t, v.Busy)
	assert.Equal(t, int32(1), ins.calls.Load())

	close(ins.gate)
	require.NoError(t, <-done)
	v, err = svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, v.Submitted)
	assert.Equal(t, int32(1), ins.calls.Load())
}

func TestService_LeaseRenewedForOtherReplicas(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ins := &stubInserter{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	lease := flow.WithSubmitLease(150 * time.Millisecond)

	first, err := flow.NewService(flow.DefaultScript(), session.NewManager(store), ins, lease)
	require.NoError(t, err)
	second, err := flow.NewService(flow.DefaultScript(), session.NewManager(store), ins, lease)
	require.NoError(t, err)

	_, err = first.Start(ctx, "s1")
	require.NoError(t, err)
	advanceTo(t, first, "s1", first.Script().LastQuestion())

	done := make(chan error, 1)
	go func() {
		_, err := first.Submit(ctx, "s1")
		done <- err
	}()
	<-ins.entered
	time.Sleep(400 * time.Millisecond)

	v, err := second.View(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, v.Busy, "renewed flag is not stale")
	_, err = second.Submit(ctx, "s1")
	assert.ErrorIs(t, err, flow.ErrSubmissionInFlight)

	close(ins.gate)
	require.NoError(t, <-done)
	v, err = second.View(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, v.Submitted)
	assert.Empty(t, v.Notice)
	assert.Equal(t, int32(1), ins.calls.Load())
}

func TestService_StaleSubmitLeaseIsReleased(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	svc, store := newService(t, memory.NewRecordStore(),
		flow.WithSubmitLease(time.Minute),
		flow.WithServiceClock(clock),
	)
	_, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	advanceTo(t, svc, "s1", svc.Script().LastQuestion())

	// A replica died after raising the flag.
	state, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	state.Submitting = true
	state.SubmittingAt = now.Add(-2 * time.Minute)
	require.NoError(t, store.Save(ctx, "s1", state))

	v, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, v.Busy)
	assert.Equal(t, flow.SubmitFailureNotice, v.Notice)

	v, err = svc.Submit(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, v.Submitted)
}

func TestService_Abandon(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, memory.NewRecordStore())
	_, err := svc.Start(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNewService_InvalidScript(t *testing.T) {
	_, err := flow.NewService(domain.Script{}, session.NewManager(memory.NewStore()), memory.NewRecordStore())
	assert.ErrorIs(t, err, domain.ErrInvalidScript)
}

func TestNotifyingInserter(t *testing.T) {
	ctx := context.Background()
	var notified []string
	ok := ports.NotifierFunc(func(_ context.Context, r domain.AnswerRecord) error {
		notified = append(notified, r.FullName)
		return nil
	})
	failing := ports.NotifierFunc(func(context.Context, domain.AnswerRecord) error {
		return errors.New("telegram down")
	})

	ins := flow.NewNotifyingInserter(memory.NewRecordStore(), nil, failing, ok)
	require.NoError(t, ins.Insert(ctx, domain.AnswerRecord{FullName: "Ana"}))
	assert.Equal(t, []string{"Ana"}, notified)

	rejected := flow.NewNotifyingInserter(&stubInserter{err: errors.New("db")}, nil, ok)
	assert.Error(t, rejected.Insert(ctx, domain.AnswerRecord{FullName: "Bia"}))
	assert.Equal(t, []string{"Ana"}, notified, "rejected records are not announced")
}
