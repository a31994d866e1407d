package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoResult is returned when voting for a backend whose latest run has
// not produced a reply.
var ErrNoResult = errors.New("backend has no successful run to vote for")

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "error"
	RunCancelled RunStatus = "cancelled"
)

// Run is one pipeline execution for one bakeoff backend.
type Run struct {
	ID       string
	Backend  string
	Progress *ProgressTracker

	cancel context.CancelFunc
	done   chan struct{}

	audio   string
	err     error
	elapsed time.Duration
}

func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel asks the run to stop at its next stage boundary. Cancelling a
// finished run has no effect.
func (r *Run) Cancel() { r.cancel() }

// Wait blocks until the run finishes or ctx is done.
func (r *Run) Wait(ctx context.Context) (string, error) {
	select {
	case <-r.done:
		return r.audio, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Run) Status() RunStatus {
	select {
	case <-r.done:
	default:
		return RunPending
	}
	switch {
	case r.err == nil:
		return RunSuccess
	case errors.Is(r.err, context.Canceled):
		return RunCancelled
	default:
		return RunFailed
	}
}

// Result returns the reply audio, the time the pipeline took and the run
// error. It is only meaningful once Done is closed.
func (r *Run) Result() (string, time.Duration, error) {
	select {
	case <-r.done:
		return r.audio, r.elapsed, r.err
	default:
		return "", 0, nil
	}
}

type candidate struct {
	backend Backend
	history *History

	mu      sync.Mutex
	current *Run
}

// Bakeoff runs the same clip through every registered backend concurrently.
// Each backend keeps its own conversation history, and a new run for a
// backend only starts once the previous one for that backend has stopped.
type Bakeoff struct {
	pipeline   *Pipeline
	votes      *VoteState
	candidates map[string]*candidate
	order      []string
	logger     *slog.Logger
}

func NewBakeoff(pipeline *Pipeline, logger *slog.Logger) *Bakeoff {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bakeoff{
		pipeline:   pipeline,
		candidates: make(map[string]*candidate),
		logger:     logger,
	}
	for _, backend := range pipeline.Registry().Backends() {
		b.candidates[backend.ID] = &candidate{backend: backend, history: NewHistory()}
		b.order = append(b.order, backend.ID)
	}
	b.votes = NewVoteState(b.order...)
	return b
}

func (b *Bakeoff) Backends() []Backend {
	out := make([]Backend, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.candidates[id].backend)
	}
	return out
}

func (b *Bakeoff) Votes() *VoteState { return b.votes }

// History returns the conversation of backendID.
func (b *Bakeoff) History(backendID string) (*History, error) {
	c, err := b.candidate(backendID)
	if err != nil {
		return nil, err
	}
	return c.history, nil
}

// Submit starts a run of videoInput on every backend. A new clip clears the
// current winner.
func (b *Bakeoff) Submit(ctx context.Context, videoInput string) []*Run {
	b.votes.ClearWinner()
	runs := make([]*Run, 0, len(b.order))
	for _, id := range b.order {
		runs = append(runs, b.start(ctx, b.candidates[id], videoInput))
	}
	return runs
}

// Start cancels any run in flight for backendID and starts a new one. The
// new run does not touch the backend's history until the old one has
// returned. ctx bounds the run's lifetime and should outlive the caller's
// request.
func (b *Bakeoff) Start(ctx context.Context, backendID, videoInput string) (*Run, error) {
	c, err := b.candidate(backendID)
	if err != nil {
		return nil, err
	}
	return b.start(ctx, c, videoInput), nil
}

func (b *Bakeoff) start(ctx context.Context, c *candidate, videoInput string) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:       uuid.NewString(),
		Backend:  c.backend.ID,
		Progress: &ProgressTracker{},
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	c.mu.Lock()
	prev := c.current
	c.current = run
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	logger := b.logger.With("backend", c.backend.ID, "run", run.ID)
	go func() {
		defer close(run.done)
		defer cancel()

		if prev != nil {
			<-prev.done
		}

		logger.Info("bakeoff run started")
		began := time.Now()
		run.audio, run.err = b.pipeline.Run(runCtx, videoInput, c.backend.ID, c.history, run.Progress)
		run.elapsed = time.Since(began)
		if run.err != nil {
			logger.Warn("bakeoff run ended", "error", run.err, "elapsed", run.elapsed)
			return
		}
		logger.Info("bakeoff run completed", "elapsed", run.elapsed)
	}()
	return run
}

// Latest returns the most recent run for backendID, or nil.
func (b *Bakeoff) Latest(backendID string) *Run {
	c, ok := b.candidates[backendID]
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Runs returns the latest run of every backend that has one, in
// registration order.
func (b *Bakeoff) Runs() []*Run {
	var out []*Run
	for _, id := range b.order {
		if r := b.Latest(id); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Wait blocks until every latest run has finished or ctx is done.
func (b *Bakeoff) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range b.Runs() {
		g.Go(func() error {
			select {
			case <-r.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Vote records backendID as the winner for the current clip. Only a
// backend whose latest run succeeded can be voted for.
func (b *Bakeoff) Vote(backendID string) error {
	if _, err := b.candidate(backendID); err != nil {
		return err
	}
	r := b.Latest(backendID)
	if r == nil || r.Status() != RunSuccess {
		return fmt.Errorf("%w: %q", ErrNoResult, backendID)
	}
	return b.votes.CastVote(backendID)
}

// Unvote retracts the current vote.
func (b *Bakeoff) Unvote() { b.votes.RetractVote() }

// Reset drops the current clip: in-flight runs are cancelled and the
// current winner is cleared. Win counters are kept.
func (b *Bakeoff) Reset() {
	b.votes.ClearWinner()
	for _, r := range b.Runs() {
		r.Cancel()
	}
}

func (b *Bakeoff) candidate(backendID string) (*candidate, error) {
	c, ok := b.candidates[backendID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backendID)
	}
	return c, nil
}
