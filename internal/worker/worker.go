// Package worker drives one engine on a dedicated goroutine.
//
// The worker owns its engine exclusively. Selections arrive on a command
// channel and are drained between ticks; each tick publishes exactly one
// snapshot on a buffered channel that never blocks the solver. When the
// buffer is full the oldest snapshot is discarded.
//
//	cmds := make(chan worker.Command, 1)
//	w := worker.Start(ctx, eng, cmds, worker.WithInterval(8*time.Millisecond))
//	defer w.Stop()
//	for range frames {
//	    if snap, ok := worker.LatestSnapshot(w.Snapshots()); ok {
//	        draw(snap)
//	    }
//	}
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/scenario"
)

const (
	DefaultInterval = 8 * time.Millisecond
	DefaultBuffer   = 8
)

// ErrDisconnected reports that the command producer closed its channel.
var ErrDisconnected = errors.New("worker: command channel closed")

// Command selects a scenario and a variant. Applying it rebuilds the scene.
type Command struct {
	Scenario scenario.Name
	Variant  engine.Variant
}

type Worker struct {
	eng       *engine.Engine
	commands  <-chan Command
	snapshots chan engine.Snapshot

	interval time.Duration
	buffer   int
	maxTicks int
	logger   *slog.Logger
	build    Builder

	running atomic.Bool
	dropped atomic.Int64
	quit    chan struct{}
	once    sync.Once
	done    chan struct{}
	err     error
}

type Option func(*Worker)

// WithInterval sets the target tick cadence. Zero runs flat out.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d >= 0 {
			w.interval = d
		}
	}
}

// WithBuffer sets the snapshot channel capacity.
func WithBuffer(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// WithMaxTicks stops the worker cleanly after n ticks. Zero means unbounded.
func WithMaxTicks(n int) Option {
	return func(w *Worker) { w.maxTicks = n }
}

// Builder rebuilds the engine's scene when a command arrives.
type Builder func(eng *engine.Engine, name scenario.Name) error

// WithBuilder replaces scenario.Build, for callers that layer overrides such
// as a fixed gravity on top of the scenario.
func WithBuilder(b Builder) Option {
	return func(w *Worker) {
		if b != nil {
			w.build = b
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Start launches the worker. A nil commands channel is valid and never
// delivers anything.
func Start(ctx context.Context, eng *engine.Engine, commands <-chan Command, opts ...Option) *Worker {
	w := &Worker{
		eng:      eng,
		commands: commands,
		interval: DefaultInterval,
		buffer:   DefaultBuffer,
		logger:   slog.Default(),
		build:    buildScenario,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.snapshots = make(chan engine.Snapshot, w.buffer)
	w.running.Store(true)

	w.logger.Info("worker started",
		"scenario", eng.Scenario(), "variant", eng.Variant(), "interval", w.interval)
	go w.run(ctx)
	return w
}

// Snapshots is closed once the worker exits.
func (w *Worker) Snapshots() <-chan engine.Snapshot { return w.snapshots }

// Done is closed once the worker exits.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Dropped counts snapshots discarded because the consumer fell behind.
func (w *Worker) Dropped() int64 { return w.dropped.Load() }

// Err returns the terminal error. Only meaningful after Done is closed.
func (w *Worker) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Stop clears the running flag, waits for the goroutine to finish its
// current tick and exit, and returns the terminal error.
func (w *Worker) Stop() error {
	w.once.Do(func() {
		w.running.Store(false)
		close(w.quit)
	})
	<-w.done
	return w.err
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.snapshots)

	next := time.Now()
	for ticks := 0; w.running.Load(); ticks++ {
		if w.maxTicks > 0 && ticks >= w.maxTicks {
			break
		}
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped", "reason", ctx.Err())
			return
		default:
		}

		if err := w.drain(); err != nil {
			w.fail(err)
			return
		}
		if err := w.eng.Solve(); err != nil {
			w.fail(err)
			return
		}
		w.publish(w.eng.TakeSnapshot())

		// Deadline cadence: a slow tick makes the next one start early
		// instead of skipping it.
		next = next.Add(w.interval)
		wait := time.Until(next)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("worker stopped", "reason", ctx.Err())
			return
		case <-w.quit:
			timer.Stop()
		case <-timer.C:
		}
	}
	w.logger.Info("worker stopped", "tick", w.eng.Tick())
}

func (w *Worker) fail(err error) {
	w.err = err
	w.logger.Error("worker aborted", "error", err)
}

// drain empties the command channel and applies only the last command.
func (w *Worker) drain() error {
	var (
		last    Command
		pending bool
	)
	for {
		select {
		case cmd, ok := <-w.commands:
			if !ok {
				return ErrDisconnected
			}
			last, pending = cmd, true
		default:
			if pending {
				return w.apply(last)
			}
			return nil
		}
	}
}

func (w *Worker) apply(cmd Command) error {
	w.eng.SetVariant(cmd.Variant)
	if err := w.build(w.eng, cmd.Scenario); err != nil {
		return fmt.Errorf("apply command: %w", err)
	}
	w.logger.Debug("command applied", "scenario", cmd.Scenario, "variant", cmd.Variant)
	return nil
}

func buildScenario(eng *engine.Engine, name scenario.Name) error {
	return scenario.Build(eng, name)
}

// publish never blocks: when the buffer is full the oldest snapshot goes.
func (w *Worker) publish(s engine.Snapshot) {
	for {
		select {
		case w.snapshots <- s:
			return
		default:
		}
		select {
		case <-w.snapshots:
			w.dropped.Add(1)
		default:
		}
	}
}

// LatestSnapshot drains ch and returns the newest snapshot, if any.
func LatestSnapshot(ch <-chan engine.Snapshot) (engine.Snapshot, bool) {
	var (
		latest engine.Snapshot
		found  bool
	)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return latest, found
			}
			latest, found = s, true
		default:
			return latest, found
		}
	}
}
