package strategies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blueember/storefront-chat/internal/logging"
	"github.com/blueember/storefront-chat/providers"
)

// DefaultAttemptDelay is the pause between two consecutive attempts.
const DefaultAttemptDelay = time.Second

// Phase is the position of a chain execution in its lifecycle.
//
//	Pending    → Attempting(0)     chain non-empty
//	Pending    → Exhausted         chain empty
//	Attempting → Succeeded         reply received
//	Attempting → Attempting(i+1)   failure, candidates left
//	Attempting → Exhausted         failure on the last candidate
type Phase int

const (
	PhasePending Phase = iota
	PhaseAttempting
	PhaseSucceeded
	PhaseExhausted
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseAttempting:
		return "attempting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// AttemptResult is the outcome of one upstream call.
type AttemptResult struct {
	Reply string
	Err   error
}

// State is a snapshot of a chain execution.
type State struct {
	Phase    Phase
	Index    int // candidate being attempted; meaningful in PhaseAttempting
	ChainLen int
	Attempts int
	Reply    string
	// LastErr is the most recent hard failure. Soft misses do not replace it.
	LastErr    error
	SoftMisses int
}

// Start returns the first state for a chain of n candidates.
func Start(n int) State {
	s := State{Phase: PhasePending, ChainLen: n}
	if n == 0 {
		s.Phase = PhaseExhausted
		return s
	}
	s.Phase = PhaseAttempting
	return s
}

// Done reports whether the state is terminal.
func (s State) Done() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseExhausted
}

// Advance applies the result of the current attempt. It is pure; states
// that are not attempting are returned unchanged.
func Advance(s State, r AttemptResult) State {
	if s.Phase != PhaseAttempting {
		return s
	}
	s.Attempts++
	switch {
	case r.Err == nil && r.Reply != "":
		s.Phase = PhaseSucceeded
		s.Reply = r.Reply
		return s
	case r.Err == nil, errors.Is(r.Err, providers.ErrEmptyReply):
		s.SoftMisses++
	default:
		s.LastErr = r.Err
	}
	if s.Index+1 < s.ChainLen {
		s.Index++
	} else {
		s.Phase = PhaseExhausted
	}
	return s
}

// Result is a successful chain execution.
type Result struct {
	Reply      string
	Credential providers.Credential
	Attempts   int
}

// ExhaustedError is returned when every candidate of a chain failed.
type ExhaustedError struct {
	Attempts   int
	LastErr    error
	SoftMisses int
}

// Details is the caller-facing description of the last failure.
func (e *ExhaustedError) Details() string {
	if e.LastErr != nil {
		return e.LastErr.Error()
	}
	return providers.ErrEmptyReply.Error()
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all providers failed after %d attempts: %s", e.Attempts, e.Details())
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// Attempt describes one finished upstream call, reported to observers.
type Attempt struct {
	Index      int
	Credential providers.Credential
	Err        error
	Duration   time.Duration
}

// Outcome labels an attempt for metrics: "success", "empty" or "error".
func (a Attempt) Outcome() string {
	switch {
	case a.Err == nil:
		return "success"
	case errors.Is(a.Err, providers.ErrEmptyReply):
		return "empty"
	default:
		return "error"
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Failover tries each credential of a chain in order, one call each,
// pausing between attempts.
type Failover struct {
	completer providers.Completer
	delay     time.Duration
	sleep     SleepFunc
	observe   func(context.Context, Attempt)
}

// FailoverOption configures a Failover.
type FailoverOption func(*Failover)

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) FailoverOption {
	return func(f *Failover) { f.delay = d }
}

// WithSleep replaces the wait used between attempts.
func WithSleep(fn SleepFunc) FailoverOption {
	return func(f *Failover) { f.sleep = fn }
}

// WithObserver registers a callback invoked after every attempt.
func WithObserver(fn func(context.Context, Attempt)) FailoverOption {
	return func(f *Failover) { f.observe = fn }
}

// NewFailover creates a failover executor around completer.
func NewFailover(completer providers.Completer, opts ...FailoverOption) *Failover {
	f := &Failover{
		completer: completer,
		delay:     DefaultAttemptDelay,
		sleep:     Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Execute walks chain until an upstream returns a reply.
//
// An empty chain returns ErrNoCredentials without any call. When every
// candidate fails the error is an *ExhaustedError. If ctx is cancelled the
// walk stops and the context error is returned.
func (f *Failover) Execute(ctx context.Context, req providers.Request, chain []providers.Credential) (*Result, error) {
	if len(chain) == 0 {
		return nil, ErrNoCredentials
	}
	log := logging.FromContext(ctx)

	s := Start(len(chain))
	for !s.Done() {
		if s.Index > 0 {
			if err := f.sleep(ctx, f.delay); err != nil {
				return nil, fmt.Errorf("failover stopped after %d attempts: %w", s.Attempts, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failover stopped after %d attempts: %w", s.Attempts, err)
		}

		cred := chain[s.Index]
		start := time.Now()
		reply, err := f.completer.Complete(ctx, cred, req)
		if err == nil && reply == "" {
			err = providers.ErrEmptyReply
		}
		a := Attempt{Index: s.Index, Credential: cred, Err: err, Duration: time.Since(start)}
		if f.observe != nil {
			f.observe(ctx, a)
		}
		if err != nil {
			log.Warn("upstream attempt failed",
				"attempt", s.Index+1,
				"chain_length", len(chain),
				"credential", cred,
				"error", err,
			)
		}

		idx := s.Index
		s = Advance(s, AttemptResult{Reply: reply, Err: err})
		if s.Phase == PhaseSucceeded {
			return &Result{Reply: s.Reply, Credential: chain[idx], Attempts: s.Attempts}, nil
		}
	}
	return nil, &ExhaustedError{Attempts: s.Attempts, LastErr: s.LastErr, SoftMisses: s.SoftMisses}
}
