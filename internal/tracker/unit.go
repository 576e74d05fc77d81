// Package tracker keeps the books for image comparisons running
// concurrently: which ones were started, which finished, and how.
//
// The tracker never schedules work. Producers register a Unit, run the
// comparison however they like and call Complete exactly once; a consumer
// waits on the completion signals and reads the outcomes as a batch.
package tracker

import (
	"image"
	"io"
	"sync"
)

// Unit is one comparison. It owns its two images until Close.
type Unit struct {
	index int
	done  chan struct{}
	once  sync.Once

	mu        sync.Mutex
	completed bool
	succeeded bool
	released  bool
	master    image.Image
	captured  image.Image
}

// NewUnit returns a pending unit that takes ownership of master and captured.
func NewUnit(index int, master, captured image.Image) *Unit {
	return &Unit{
		index:    index,
		done:     make(chan struct{}),
		master:   master,
		captured: captured,
	}
}

// Index returns the caller-assigned index used to correlate outcomes.
func (u *Unit) Index() int { return u.index }

// Images returns the owned images, or nils once the unit is closed.
func (u *Unit) Images() (master, captured image.Image) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.master, u.captured
}

// Done is closed when the unit completes or is released, whichever is first.
func (u *Unit) Done() <-chan struct{} { return u.done }

// Complete records the outcome. Only the first call on an unreleased unit
// has an effect; it reports whether this call was the one that counted.
func (u *Unit) Complete(succeeded bool) bool {
	u.mu.Lock()
	if u.completed || u.released {
		u.mu.Unlock()
		return false
	}
	u.completed = true
	u.succeeded = succeeded
	u.mu.Unlock()

	u.signal()
	return true
}

// Close releases the unit: its images are disposed and its signal fires if
// it had not yet. Close never waits for the comparison; a comparison that
// finishes later finds the unit released and its Complete is ignored.
// Calling Close more than once is a no-op.
func (u *Unit) Close() {
	u.mu.Lock()
	if u.released {
		u.mu.Unlock()
		return
	}
	u.released = true
	master, captured := u.master, u.captured
	u.master, u.captured = nil, nil
	u.mu.Unlock()

	dispose(master)
	dispose(captured)
	u.signal()
}

func (u *Unit) signal() {
	u.once.Do(func() { close(u.done) })
}

// dispose closes images backed by releasable buffers.
func dispose(img image.Image) {
	if c, ok := img.(io.Closer); ok {
		_ = c.Close()
	}
}

// Outcome is a snapshot of one unit. Succeeded is meaningful only when
// Completed is true.
type Outcome struct {
	Index     int
	Succeeded bool
	Completed bool
}

func (u *Unit) outcome() Outcome {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Outcome{Index: u.index, Succeeded: u.completed && u.succeeded, Completed: u.completed}
}
