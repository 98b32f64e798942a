package flow

import (
	"context"
	"sync"
)

// handshakeState tracks the trigger protocol: the requestor signals ready,
// then blocks until the caller fires the navigation.
type handshakeState int

const (
	handshakeWaiting handshakeState = iota
	handshakeReady
	handshakeFired
)

// navigationHandshake decouples navigation initiation from completion so an
// externally performed action can serve as the trigger. The gatherer's
// requestor marks the ready point and blocks until fired; the navigate
// goroutine reports the overall outcome through complete.
//
// Failure routing depends on the state at completion time, not on timing: a
// navigate failure before the ready signal surfaces from awaitReady (so the
// caller never receives a handle for a navigation that never armed), while a
// failure at or after it surfaces from awaitResult, because by then handle
// installation is unconditional.
type navigationHandshake struct {
	mu    sync.Mutex
	state handshakeState

	ready    chan struct{} // closed when the requestor reaches its ready point
	fire     chan struct{} // closed when the caller triggers the navigation
	done     chan struct{} // closed when the whole navigate call has finished
	canceled chan struct{} // closed when the setup side gives up waiting

	completed bool
	preReady  bool  // completion happened before the ready signal
	finalErr  error // outcome of the navigate call, set before done closes
	cancelErr error
}

func newNavigationHandshake() *navigationHandshake {
	return &navigationHandshake{
		ready:    make(chan struct{}),
		fire:     make(chan struct{}),
		done:     make(chan struct{}),
		canceled: make(chan struct{}),
	}
}

// trigger is the requestor handed to the navigation gatherer. It marks the
// ready point, then blocks until the navigation is fired.
func (h *navigationHandshake) trigger(ctx context.Context) error {
	h.signalReady()
	select {
	case <-h.fire:
		return nil
	case <-h.canceled:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.cancelErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *navigationHandshake) signalReady() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == handshakeWaiting {
		h.state = handshakeReady
		close(h.ready)
	}
}

// fireTrigger releases the blocked requestor. Idempotent.
func (h *navigationHandshake) fireTrigger() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != handshakeFired {
		h.state = handshakeFired
		close(h.fire)
	}
}

// complete records the outcome of the whole navigate call and classifies it
// against the ready point for failure routing.
func (h *navigationHandshake) complete(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.completed {
		return
	}
	h.completed = true
	h.preReady = h.state == handshakeWaiting
	h.finalErr = err
	close(h.done)
}

// cancelSetup unblocks a waiting (or future) trigger with err. Used when the
// caller stops waiting for the ready point, so the background navigate fails
// and releases the session instead of hanging on a trigger nobody will fire.
func (h *navigationHandshake) cancelSetup(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelErr != nil {
		return
	}
	if err == nil {
		err = context.Canceled
	}
	h.cancelErr = err
	close(h.canceled)
}

// awaitReady blocks until the gatherer reaches its ready point and returns
// the token that fires the trigger. A navigate failure before the ready
// point is returned here; one at or after it belongs to awaitResult.
func (h *navigationHandshake) awaitReady(ctx context.Context) (*TriggerToken, error) {
	select {
	case <-h.ready:
		return &TriggerToken{h: h}, nil
	case <-h.done:
		h.mu.Lock()
		pre := h.preReady
		err := h.finalErr
		h.mu.Unlock()
		if pre && err != nil {
			return nil, err
		}
		// Completed at or after the ready point (or succeeded without the
		// requestor ever running): the result side owns the outcome.
		return &TriggerToken{h: h}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// awaitResult blocks until the underlying navigate call finishes and
// returns its outcome.
func (h *navigationHandshake) awaitResult(ctx context.Context) error {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.finalErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerToken is handed out once the navigation gatherer is waiting for the
// triggering action.
type TriggerToken struct {
	h *navigationHandshake
}

// Fire releases the blocked requestor. Idempotent.
func (t *TriggerToken) Fire() {
	t.h.fireTrigger()
}

// AwaitResult blocks until the underlying navigate call finishes.
func (t *TriggerToken) AwaitResult(ctx context.Context) error {
	return t.h.awaitResult(ctx)
}

// NavigationHandle represents an initiated navigation whose trigger has not
// fired yet.
type NavigationHandle struct {
	token *TriggerToken
}

// ContinueAndAwaitResult fires the trigger and waits for the underlying
// navigate call to finish.
func (h *NavigationHandle) ContinueAndAwaitResult(ctx context.Context) error {
	h.token.Fire()
	return h.token.AwaitResult(ctx)
}
