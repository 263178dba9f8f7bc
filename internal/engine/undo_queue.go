package engine

import (
	"log"
	"sync"
	"time"

	"github.com/scrypster/mnemon/pkg/types"
)

// DefaultUndoTimeout is how long a deleted entry stays restorable.
const DefaultUndoTimeout = 5 * time.Second

// pendingDelete is a removed mnemon waiting in the undo window.
type pendingDelete struct {
	mnemon        *types.Mnemon
	originalIndex int
	generation    uint64
	timer         *time.Timer
}

// UndoQueue holds at most one pending deletion. Staging a second deletion
// while one is pending finalizes the first immediately. When the undo window
// expires the deletion becomes permanent; Undo within the window restores
// the entry at its original location.
//
// The generation counter guards against a stale timer firing after its slot
// was already resolved by an Undo or a replacement Stage.
type UndoQueue struct {
	mu      sync.Mutex
	state   *AppState
	timeout time.Duration
	pending *pendingDelete
	gen     uint64

	// onChange is invoked outside the lock whenever the pending slot
	// appears or resolves.
	onChange func()
}

// NewUndoQueue creates an undo queue over the given state. A timeout of 0
// uses DefaultUndoTimeout.
func NewUndoQueue(state *AppState, timeout time.Duration) *UndoQueue {
	if timeout <= 0 {
		timeout = DefaultUndoTimeout
	}
	return &UndoQueue{state: state, timeout: timeout}
}

// OnChange registers a callback invoked after the pending slot changes.
// Must be set before the queue is shared across goroutines.
func (q *UndoQueue) OnChange(fn func()) {
	q.onChange = fn
}

func (q *UndoQueue) notify() {
	if q.onChange != nil {
		q.onChange()
	}
}

// Stage removes the mnemon from the app state and parks it in the undo
// slot. Returns false when the id does not exist. Any previously pending
// deletion is finalized first.
func (q *UndoQueue) Stage(id string) bool {
	mnemon, originalIndex, ok := q.state.RemoveMnemon(id)
	if !ok {
		return false
	}

	q.mu.Lock()
	if q.pending != nil {
		q.finalizeLocked(q.pending)
		q.pending = nil
	}
	q.gen++
	p := &pendingDelete{
		mnemon:        mnemon,
		originalIndex: originalIndex,
		generation:    q.gen,
	}
	p.timer = time.AfterFunc(q.timeout, func() {
		q.expire(p.generation)
	})
	q.pending = p
	q.mu.Unlock()
	q.notify()
	return true
}

// Undo restores the pending deletion. Returns false when the window already
// expired or nothing was pending.
func (q *UndoQueue) Undo() bool {
	q.mu.Lock()
	p := q.pending
	if p == nil {
		q.mu.Unlock()
		return false
	}
	p.timer.Stop()
	q.pending = nil
	q.mu.Unlock()

	q.state.RestoreMnemon(p.mnemon, p.originalIndex)
	log.Printf("Restored mnemon %s via undo", p.mnemon.ID)
	q.notify()
	return true
}

// Pending reports whether a deletion is currently undoable, and for which
// mnemon.
func (q *UndoQueue) Pending() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		return "", false
	}
	return q.pending.mnemon.ID, true
}

// Flush finalizes any pending deletion immediately, used at shutdown so the
// store reflects the user's last action.
func (q *UndoQueue) Flush() {
	q.mu.Lock()
	p := q.pending
	if p == nil {
		q.mu.Unlock()
		return
	}
	p.timer.Stop()
	q.finalizeLocked(p)
	q.pending = nil
	q.mu.Unlock()
	q.notify()
}

// expire fires from the undo timer. The generation check makes it a no-op
// when the slot was resolved before the timer ran.
func (q *UndoQueue) expire(generation uint64) {
	q.mu.Lock()
	p := q.pending
	if p == nil || p.generation != generation {
		q.mu.Unlock()
		return
	}
	q.finalizeLocked(p)
	q.pending = nil
	q.mu.Unlock()
	q.notify()
}

// finalizeLocked makes a staged deletion permanent. Callers hold q.mu.
func (q *UndoQueue) finalizeLocked(p *pendingDelete) {
	q.state.DeleteMnemonPermanently(p.mnemon.ID)
}
