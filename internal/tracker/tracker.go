package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNoSignals is returned by WaitAny when there is nothing to wait for.
var ErrNoSignals = errors.New("no signals to wait on")

// Tracker is the registry of units for one run. It is safe for concurrent
// use; one mutex guards the append-only list.
type Tracker struct {
	mu     sync.Mutex
	units  []*Unit
	logger *slog.Logger
}

// New returns an empty tracker. A nil logger means slog.Default().
func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger}
}

// Handle refers to a registered unit.
type Handle struct {
	unit *Unit
}

// Index returns the unit's index.
func (h Handle) Index() int { return h.unit.Index() }

// Complete records the unit's outcome; see Unit.Complete.
func (h Handle) Complete(succeeded bool) bool { return h.unit.Complete(succeeded) }

// Done returns the unit's completion signal.
func (h Handle) Done() <-chan struct{} { return h.unit.Done() }

// Unit returns the registered unit.
func (h Handle) Unit() *Unit { return h.unit }

// Register adds u to the tracked set. It never blocks on other units.
func (t *Tracker) Register(u *Unit) Handle {
	t.mu.Lock()
	t.units = append(t.units, u)
	n := len(t.units)
	t.mu.Unlock()

	t.logger.Debug("comparison registered", "index", u.Index(), "tracked", n)
	return Handle{unit: u}
}

// Len returns the number of tracked units.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.units)
}

func (t *Tracker) snapshot() []*Unit {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Unit, len(t.units))
	copy(out, t.units)
	return out
}

// Signals returns every tracked unit's completion signal in registration order.
func (t *Tracker) Signals() []<-chan struct{} {
	units := t.snapshot()
	out := make([]<-chan struct{}, len(units))
	for i, u := range units {
		out[i] = u.Done()
	}
	return out
}

// Results returns the outcome of every tracked unit in registration order.
// Units still running report Completed == false.
func (t *Tracker) Results() []Outcome {
	units := t.snapshot()
	out := make([]Outcome, len(units))
	for i, u := range units {
		out[i] = u.outcome()
	}
	return out
}

// Wait blocks until every unit tracked at call time has signaled or ctx ends.
func (t *Tracker) Wait(ctx context.Context) error {
	return WaitAll(ctx, t.Signals())
}

// ClearAll closes every tracked unit and empties the set. Units that have
// not completed are released without waiting for them.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	units := t.units
	t.units = nil
	t.mu.Unlock()

	forced := 0
	for _, u := range units {
		if !u.outcome().Completed {
			forced++
		}
		u.Close()
	}
	if len(units) > 0 {
		t.logger.Debug("comparisons cleared", "released", len(units), "unfinished", forced)
	}
}

// WaitAll blocks until every signal has fired or ctx is done. On timeout it
// returns ctx.Err(); deciding what unfinished units mean is up to the caller.
func WaitAll(ctx context.Context, signals []<-chan struct{}) error {
	for _, s := range signals {
		select {
		case <-s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// WaitAny blocks until one signal fires and returns its position.
func WaitAny(ctx context.Context, signals []<-chan struct{}) (int, error) {
	if len(signals) == 0 {
		return -1, ErrNoSignals
	}
	for i, s := range signals {
		select {
		case <-s:
			return i, nil
		default:
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	fired := make(chan int, len(signals))
	for i, s := range signals {
		i, s := i, s
		go func() {
			select {
			case <-s:
				fired <- i
			case <-stop:
			}
		}()
	}

	select {
	case i := <-fired:
		return i, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}
