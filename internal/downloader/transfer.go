package downloader

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Transfer is the handle for one started download. Its control methods are
// safe to call from any goroutine at any time.
type Transfer struct {
	ID      uuid.UUID
	Request Request

	path string

	paused    atomic.Bool
	cancelled atomic.Bool
	state     atomic.Int32

	downloaded atomic.Int64
	total      atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newTransfer(parent context.Context, req Request) *Transfer {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Transfer{
		ID:      uuid.New(),
		Request: req,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	t.state.Store(int32(StateRunning))
	return t
}

// Pause asks the transfer to stop consuming the body. It has no effect once
// the transfer was cancelled or has finished.
func (t *Transfer) Pause() {
	if t.State().Terminal() || t.cancelled.Load() {
		return
	}
	t.paused.Store(true)
}

// Resume clears a pending pause.
func (t *Transfer) Resume() {
	t.paused.Store(false)
}

// Cancel stops the transfer. It wins over any pause.
func (t *Transfer) Cancel() {
	if t.State().Terminal() {
		return
	}
	t.cancelled.Store(true)
	t.paused.Store(false)
	t.cancel()
}

// Path is the resolved destination, empty if resolution failed.
func (t *Transfer) Path() string {
	return t.path
}

// State reports where the transfer loop currently is.
func (t *Transfer) State() State {
	return State(t.state.Load())
}

// Downloaded returns the bytes written so far.
func (t *Transfer) Downloaded() int64 {
	return t.downloaded.Load()
}

// Total returns the reported content length, 0 if unknown or not yet known.
func (t *Transfer) Total() int64 {
	return t.total.Load()
}

// Done is closed after the terminal notification was delivered.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Err returns the fault behind a failed outcome. Only valid after Done.
func (t *Transfer) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Transfer) isCancelled() bool {
	return t.cancelled.Load() || t.ctx.Err() != nil
}

func (t *Transfer) setState(s State) {
	t.state.Store(int32(s))
}

// settle records the terminal state. It runs before the terminal notification
// so a sink may start the next transfer right away.
func (t *Transfer) settle(s State, err error) {
	t.err = err
	t.setState(s)
}

func (t *Transfer) finish() {
	t.cancel()
	close(t.done)
}
