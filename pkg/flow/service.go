package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/bookclub/internal/logging"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/ports"
	"github.com/aretw0/bookclub/pkg/session"
)

// DefaultSubmitLease is how long a raised busy flag is honored without renewal.
// A live submitter renews it while the inserter runs. A replica that dies
// mid-submission stops renewing, and after the lease the session becomes
// interactive again.
const DefaultSubmitLease = 2 * time.Minute

// ChangeListener receives the diff of every persisted change.
type ChangeListener func(ctx context.Context, diff *domain.StateDiff)

// Service runs signup flows whose state lives in a StateStore, so a session can
// move between requests, processes and replicas.
type Service struct {
	script    domain.Script
	sessions  *session.Manager
	inserter  ports.Inserter
	hooks     domain.LifecycleHooks
	listeners []ChangeListener
	lease     time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	active map[string]string // session ID -> submit token held by this process
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHooks registers lifecycle hooks. Repeated calls are combined.
func WithHooks(hooks domain.LifecycleHooks) ServiceOption {
	return func(s *Service) {
		s.hooks = domain.CombineHooks(s.hooks, hooks)
	}
}

// WithChangeListener subscribes to persisted diffs.
func WithChangeListener(l ChangeListener) ServiceOption {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

// WithSubmitLease overrides DefaultSubmitLease.
func WithSubmitLease(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.lease = d
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceClock replaces time.Now.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a flow service. The script must be valid.
func NewService(script domain.Script, sessions *session.Manager, inserter ports.Inserter, opts ...ServiceOption) (*Service, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		script:   script,
		sessions: sessions,
		inserter: inserter,
		lease:    DefaultSubmitLease,
		logger:   logging.NewNop(),
		now:      time.Now,
		active:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Script returns the page sequence of every flow the service runs.
func (s *Service) Script() domain.Script {
	return s.script
}

// Start loads a session or opens a new one on the cover page.
func (s *Service) Start(ctx context.Context, sessionID string) (View, error) {
	var (
		state   *domain.FlowState
		created bool
	)
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, created, err = s.sessions.LoadOrStartLocked(ctx, sessionID, s.script.Len())
		if err != nil {
			return err
		}
		if !created {
			state, err = s.releaseStaleLocked(ctx, sessionID, state)
		}
		return err
	})
	if err != nil {
		return View{}, err
	}

	if created {
		s.logger.Debug("Session started", "session_id", sessionID)
		ev := s.stepEvent(domain.EventSessionStart, sessionID, 0)
		if s.hooks.OnSessionStart != nil {
			s.hooks.OnSessionStart(ctx, ev)
		}
		if s.hooks.OnStepEnter != nil {
			enter := *ev
			enter.Type = domain.EventStepEnter
			s.hooks.OnStepEnter(ctx, &enter)
		}
	}
	return NewView(s.script, state), nil
}

// View returns the current view of an existing session.
func (s *Service) View(ctx context.Context, sessionID string) (View, error) {
	var state *domain.FlowState
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		loaded, err := s.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		state, err = s.releaseStaleLocked(ctx, sessionID, loaded)
		return err
	})
	if err != nil {
		return View{}, err
	}
	return NewView(s.script, state), nil
}

// Advance moves the session to the next page when allowed.
func (s *Service) Advance(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, func(c *Controller) error {
		c.Advance()
		return nil
	})
}

// Retreat moves the session to the previous page when allowed.
func (s *Service) Retreat(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, func(c *Controller) error {
		c.Retreat()
		return nil
	})
}

// SetField writes one answer of the session.
func (s *Service) SetField(ctx context.Context, sessionID string, field domain.Field, value string) (View, error) {
	return s.mutate(ctx, sessionID, func(c *Controller) error {
		return c.SetField(field, value)
	})
}

// Submit hands the session's answers to the inserter.
//
// The busy flag is persisted before the inserter runs and the session lock is
// released meanwhile, so the store sees the flag from every replica. A second
// Submit returns ErrSubmissionInFlight without reaching the inserter for as
// long as the first one is running.
func (s *Service) Submit(ctx context.Context, sessionID string) (View, error) {
	var (
		record domain.AnswerRecord
		step   int
		token  string
	)
	begin, err := s.mutate(ctx, sessionID, func(c *Controller) error {
		var err error
		record, err = c.BeginSubmit()
		step = c.Step()
		if err == nil {
			token = c.State().SubmitToken
			s.hold(sessionID, token)
		}
		return err
	})
	if err != nil {
		if token != "" {
			s.release(sessionID, token)
		}
		return begin, err
	}
	defer s.release(sessionID, token)

	start := s.now()
	s.emitSubmit(ctx, s.hooks.OnSubmitStart, domain.EventSubmitStart, sessionID, 0, nil)

	stopRenew := s.renewWhile(ctx, sessionID, token)
	spanCtx, span := startSubmitSpan(ctx, sessionID, step)
	insertErr := s.inserter.Insert(spanCtx, record)
	markSpanResult(span, insertErr)
	span.End()
	stopRenew()

	elapsed := s.now().Sub(start)
	if elapsed > s.lease {
		s.logger.Warn("Submission outlived its lease", "session_id", sessionID, "elapsed", elapsed)
	}

	view, err := s.mutate(ctx, sessionID, func(c *Controller) error {
		// Another submission raised the flag after ours was released.
		if cur := c.State(); cur.Submitting && cur.SubmitToken != token {
			s.logger.Warn("Submission flag taken over, outcome not recorded", "session_id", sessionID)
			return nil
		}
		c.FinishSubmit(insertErr)
		return nil
	})
	s.emitSubmit(ctx, s.hooks.OnSubmitFinished, domain.EventSubmitFinished, sessionID, elapsed, insertErr)
	if err != nil {
		return view, fmt.Errorf("failed to record submission outcome: %w", err)
	}

	if insertErr != nil {
		s.logger.Error("Submission rejected", "session_id", sessionID, "err", insertErr)
		return view, fmt.Errorf("%w: %w", ErrSubmissionFailed, insertErr)
	}
	s.logger.Info("Submission accepted", "session_id", sessionID, "duration", elapsed)
	return view, nil
}

// Abandon deletes a session.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// mutate applies op to the persisted state and saves the result under the
// session lock. The view is returned even when op fails.
func (s *Service) mutate(ctx context.Context, sessionID string, op func(*Controller) error) (View, error) {
	var (
		before, after *domain.FlowState
		opErr         error
	)
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		loaded, err := s.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		loaded, err = s.releaseStaleLocked(ctx, sessionID, loaded)
		if err != nil {
			return err
		}
		before = loaded.Snapshot()

		c := Resume(s.script, loaded, nil, WithClock(s.now))
		opErr = op(c)
		after = c.State()

		if domain.Diff(before, after) == nil {
			return nil
		}
		return s.sessions.Store().Save(ctx, sessionID, after)
	})
	if err != nil {
		return View{}, err
	}

	s.publish(ctx, before, after)
	return NewView(s.script, after), opErr
}

func (s *Service) hold(sessionID, token string) {
	s.mu.Lock()
	s.active[sessionID] = token
	s.mu.Unlock()
}

func (s *Service) release(sessionID, token string) {
	s.mu.Lock()
	if s.active[sessionID] == token {
		delete(s.active, sessionID)
	}
	s.mu.Unlock()
}

func (s *Service) holds(sessionID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.active[sessionID]
	return ok && held == token
}

// renewWhile stamps SubmittingAt every third of the lease until the returned
// func is called, so other replicas never see a live submission as stale.
func (s *Service) renewWhile(ctx context.Context, sessionID, token string) func() {
	interval := s.lease / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.renewLease(ctx, sessionID, token); err != nil {
					s.logger.Warn("Failed to renew submission lease", "session_id", sessionID, "err", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

func (s *Service) renewLease(ctx context.Context, sessionID, token string) error {
	return s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := s.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if !state.Submitting || state.SubmitToken != token {
			return nil
		}
		state.SubmittingAt = s.now().UTC()
		return s.sessions.Store().Save(ctx, sessionID, state)
	})
}

// releaseStaleLocked lowers a busy flag that has not been renewed within the
// lease. A flag held by a submission running in this process is never stale.
func (s *Service) releaseStaleLocked(ctx context.Context, sessionID string, state *domain.FlowState) (*domain.FlowState, error) {
	if !state.Submitting || s.now().Sub(state.SubmittingAt) <= s.lease {
		return state, nil
	}
	if s.holds(sessionID, state.SubmitToken) {
		return state, nil
	}
	s.logger.Warn("Releasing stale submission flag", "session_id", sessionID, "since", state.SubmittingAt)
	released := state.Snapshot()
	released.Submitting = false
	released.SubmittingAt = time.Time{}
	released.SubmitToken = ""
	released.Notice = SubmitFailureNotice
	released.UpdatedAt = s.now().UTC()
	if err := s.sessions.Store().Save(ctx, sessionID, released); err != nil {
		return nil, err
	}
	return released, nil
}

func (s *Service) publish(ctx context.Context, before, after *domain.FlowState) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}

	if diff.Step != nil {
		if s.hooks.OnStepLeave != nil {
			s.hooks.OnStepLeave(ctx, s.stepEvent(domain.EventStepLeave, after.SessionID, before.Step))
		}
		if s.hooks.OnStepEnter != nil {
			enter := s.stepEvent(domain.EventStepEnter, after.SessionID, after.Step)
			enter.From = before.Step
			s.hooks.OnStepEnter(ctx, enter)
		}
	}
	for _, l := range s.listeners {
		l(ctx, diff)
	}
}

func (s *Service) stepEvent(typ domain.EventType, sessionID string, step int) *domain.StepEvent {
	ev := &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: s.now().UTC(), Type: typ, SessionID: sessionID},
		Step:      step,
	}
	if step >= 0 && step < s.script.Len() {
		ev.StepKind = s.script.Steps[step].Kind
	}
	return ev
}

func (s *Service) emitSubmit(ctx context.Context, hook func(context.Context, *domain.SubmitEvent), typ domain.EventType, sessionID string, d time.Duration, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.SubmitEvent{
		EventBase: domain.EventBase{Timestamp: s.now().UTC(), Type: typ, SessionID: sessionID},
		Duration:  d,
		Err:       err,
	})
}
