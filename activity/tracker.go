package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	// ErrAlreadyStarted is returned when a Tracker is started a second time
	ErrAlreadyStarted = errors.New("activity tracker already started")
	// ErrStopped is returned when starting a Tracker that was stopped
	ErrStopped = errors.New("activity tracker stopped")
)

// Toucher refreshes the session's last activity
type Toucher interface {
	TouchActivity() bool
}

// Tracker refreshes a session on every pointer or key signal
type Tracker struct {
	toucher Toucher
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu          sync.Mutex
	started     bool
	stopped     bool
	unsubscribe []func()
	cancel      context.CancelFunc
	pending     chan struct{}
	done        chan struct{}
}

// Option defines a function type to modify the Tracker instance.
type Option func(*Tracker)

// WithThrottle refreshes at most once per interval; extra signals are dropped
func WithThrottle(interval time.Duration) Option {
	return func(t *Tracker) {
		if interval > 0 {
			t.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithLogger sets the tracker's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates a Tracker refreshing toucher
func NewTracker(toucher Toucher, options ...Option) *Tracker {
	t := &Tracker{
		toucher: toucher,
		logger:  log.Logger,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Start subscribes to src and begins refreshing. A Tracker starts once; it
// runs until Stop is called or ctx is done.
func (t *Tracker) Start(ctx context.Context, src SignalSource) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return ErrStopped
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	ctx, t.cancel = context.WithCancel(ctx)
	for _, kind := range Kinds {
		t.unsubscribe = append(t.unsubscribe, src.Subscribe(kind, t.signal))
	}
	go t.run(ctx)
	return nil
}

// StartWhenReady starts the tracker once ready is closed, without blocking
// the caller. Nothing is registered if ctx ends first.
func (t *Tracker) StartWhenReady(ctx context.Context, ready <-chan struct{}, src SignalSource) {
	go func() {
		select {
		case <-ready:
			if err := t.Start(ctx, src); err != nil && !errors.Is(err, ErrStopped) {
				t.logger.Warn().Err(err).Msg("Activity tracker: start on ready")
			}
		case <-ctx.Done():
		}
	}()
}

// Stop unsubscribes from the signal source and waits for the worker to exit.
// A stopped Tracker cannot be started again.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	if !t.started {
		t.mu.Unlock()
		return
	}
	for _, unsubscribe := range t.unsubscribe {
		unsubscribe()
	}
	t.unsubscribe = nil
	t.cancel()
	t.mu.Unlock()

	<-t.done
}

func (t *Tracker) signal(kind Kind) {
	if t.limiter != nil && !t.limiter.Allow() {
		return
	}
	select {
	case t.pending <- struct{}{}:
	default: // a refresh is already pending
	}
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.pending:
			if !t.toucher.TouchActivity() {
				t.logger.Debug().Msg("Activity tracker: no session to refresh")
			}
		}
	}
}
