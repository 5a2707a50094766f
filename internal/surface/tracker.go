package surface

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

type Runner interface {
	Run(ctx context.Context, sub pipeline.Submission) pipeline.Outcome
}

// Publisher is told about every snapshot a surface moves to.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap Snapshot)
}

// Completion is handed to the OnDone hook after every run, committed or not.
type Completion struct {
	Ticket     Ticket
	Submission pipeline.Submission
	Outcome    pipeline.Outcome
	Committed  bool
}

type Tracker struct {
	store     Store
	runner    Runner
	log       *logger.Logger
	publisher Publisher
	onDone    func(ctx context.Context, c Completion)
	now       func() time.Time

	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	pending map[Ticket]chan struct{}
}

type TrackerOption func(*Tracker)

func WithPublisher(p Publisher) TrackerOption {
	return func(t *Tracker) { t.publisher = p }
}

func OnDone(fn func(ctx context.Context, c Completion)) TrackerOption {
	return func(t *Tracker) { t.onDone = fn }
}

func WithTrackerLogger(l *logger.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.log = l.With("service", "SurfaceTracker")
		}
	}
}

func NewTracker(store Store, runner Runner, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:   store,
		runner:  runner,
		log:     logger.Nop(),
		now:     func() time.Time { return time.Now().UTC() },
		pending: map[Ticket]chan struct{}{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Submit records the surface as awaiting a reply and runs the pipeline in
// the background. The run outlives ctx's cancellation but keeps its values.
func (t *Tracker) Submit(ctx context.Context, surface string, sub pipeline.Submission) (Ticket, error) {
	surface = strings.TrimSpace(surface)
	if surface == "" {
		return Ticket{}, ErrEmptySurface
	}
	sub.Request = sub.Request.Clone()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Ticket{}, ErrClosed
	}
	t.wg.Add(1)
	t.mu.Unlock()

	snap := Snapshot{
		Surface:   surface,
		Template:  sub.Template,
		Model:     sub.Model,
		State:     pipeline.AwaitingReply,
		UpdatedAt: t.now(),
	}
	seq, err := t.store.Begin(ctx, snap)
	if err != nil {
		t.wg.Done()
		return Ticket{}, err
	}
	snap.Seq = seq
	tk := Ticket{Surface: surface, Seq: seq}

	done := make(chan struct{})
	t.mu.Lock()
	t.pending[tk] = done
	t.mu.Unlock()

	t.publish(ctx, snap)

	go t.run(context.WithoutCancel(ctx), tk, sub, done)
	return tk, nil
}

func (t *Tracker) run(ctx context.Context, tk Ticket, sub pipeline.Submission, done chan struct{}) {
	defer t.wg.Done()
	defer func() {
		t.mu.Lock()
		delete(t.pending, tk)
		t.mu.Unlock()
		close(done)
	}()

	out := t.runner.Run(ctx, sub)
	snap := Snapshot{
		Surface:   tk.Surface,
		Seq:       tk.Seq,
		Template:  sub.Template,
		Model:     out.Model,
		State:     out.State,
		Result:    out.Result,
		Error:     pipeline.Describe(out.Err),
		UpdatedAt: t.now(),
	}

	log := t.log.With(ctxutil.LogFields(ctx)...)
	committed, err := t.store.Commit(ctx, snap)
	switch {
	case err != nil:
		log.Error("surface commit failed", "surface", tk.Surface, "seq", tk.Seq, "error", err)
	case !committed:
		log.Info("stale reply dropped", "surface", tk.Surface, "seq", tk.Seq, "state", out.State)
	default:
		t.publish(ctx, snap)
	}

	if t.onDone != nil {
		t.onDone(ctx, Completion{Ticket: tk, Submission: sub, Outcome: out, Committed: committed})
	}
}

func (t *Tracker) publish(ctx context.Context, snap Snapshot) {
	if t.publisher != nil {
		t.publisher.PublishSnapshot(ctx, snap)
	}
}

// Current returns what the surface shows now.
func (t *Tracker) Current(ctx context.Context, surface string) (Snapshot, error) {
	surface = strings.TrimSpace(surface)
	if surface == "" {
		return Snapshot{}, ErrEmptySurface
	}
	return t.store.Get(ctx, surface)
}

// Wait blocks until the submission behind tk has resolved, then returns the
// surface's current snapshot. That snapshot belongs to a newer submission
// when tk's reply went stale.
func (t *Tracker) Wait(ctx context.Context, tk Ticket) (Snapshot, error) {
	t.mu.Lock()
	done, ok := t.pending[tk]
	t.mu.Unlock()
	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	return t.Current(ctx, tk.Surface)
}

// Close stops accepting submissions and waits for in-flight runs.
func (t *Tracker) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.wg.Wait()
	return nil
}
