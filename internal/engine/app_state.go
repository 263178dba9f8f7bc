package engine

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/scrypster/mnemon/internal/storage"
	"github.com/scrypster/mnemon/pkg/types"
)

// MnemonWithWork is the joined view of a mnemon and its work, used for
// display without a separate work lookup.
type MnemonWithWork struct {
	Mnemon *types.Mnemon
	Work   *types.Work
}

// AppState is the in-memory source of truth for works, mnemons, and the
// shuffled display order. Collection and index mutations happen atomically
// under one lock; persistence is dispatched in the background and never
// blocks the caller. A failed persist leaves in-memory state authoritative
// for the rest of the session; the next Load is the recovery point.
//
// The shuffled order is a permutation of [0, len(mnemons)): always the same
// length as the mnemon collection, every index exactly once. It reshuffles
// (excluding the newest element) on append and renumbers on remove/restore.
type AppState struct {
	mu    sync.RWMutex
	store storage.Store
	tasks *Dispatcher
	rng   *rand.Rand

	works    []*types.Work
	mnemons  []*types.Mnemon
	shuffled []int
	loaded   bool
	loading  bool

	// onChange is invoked after every committed mutation, outside the lock.
	onChange func()
}

// NewAppState creates an AppState backed by the given store.
func NewAppState(store storage.Store, tasks *Dispatcher) *AppState {
	return &AppState{
		store: store,
		tasks: tasks,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnChange registers a callback invoked after each committed mutation.
// Must be set before the state is shared across goroutines.
func (s *AppState) OnChange(fn func()) {
	s.onChange = fn
}

func (s *AppState) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Load fetches all persisted works and mnemons and builds a fresh random
// display permutation. It runs at most once per AppState lifetime: repeated
// calls, including a concurrent call while the first is in flight, are no-ops.
func (s *AppState) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded || s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	data, err := s.store.LoadAll(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.works = data.Works
	s.mnemons = data.Mnemons
	s.shuffled = make([]int, len(s.mnemons))
	for i := range s.shuffled {
		s.shuffled[i] = i
	}
	s.rng.Shuffle(len(s.shuffled), func(i, j int) {
		s.shuffled[i], s.shuffled[j] = s.shuffled[j], s.shuffled[i]
	})
	s.loaded = true
	s.mu.Unlock()

	log.Printf("Loaded %d works and %d mnemons from storage", len(data.Works), len(data.Mnemons))
	s.notify()
	return nil
}

// Loaded reports whether initial data has been loaded from storage.
func (s *AppState) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// MnemonsWithWorks returns every mnemon whose work reference resolves, joined
// with its work, in insertion order. The shuffled order is a secondary index
// applied by the caller via DisplayIndexAt. Mnemons with a dangling work
// reference are silently excluded.
func (s *AppState) MnemonsWithWorks() []MnemonWithWork {
	s.mu.RLock()
	defer s.mu.RUnlock()

	joined := make([]MnemonWithWork, 0, len(s.mnemons))
	for _, m := range s.mnemons {
		if w := s.findWorkLocked(m.WorkID); w != nil {
			joined = append(joined, MnemonWithWork{Mnemon: m, Work: w})
		}
	}
	return joined
}

// DisplayIndexAt returns the mnemon-collection index shown at the given
// position of the shuffled order. ok is false when position is out of range.
func (s *AppState) DisplayIndexAt(position int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.shuffled) {
		return 0, false
	}
	return s.shuffled[position], true
}

// MnemonCount returns the number of mnemons in the collection.
func (s *AppState) MnemonCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shuffled)
}

// ShuffledIndices returns a copy of the current display permutation.
func (s *AppState) ShuffledIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.shuffled))
	copy(out, s.shuffled)
	return out
}

// FindWorkByProviderRef returns the work matching ref (exact source and
// external ID), or nil.
func (s *AppState) FindWorkByProviderRef(ref types.ProviderRef) *types.Work {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findWorkByRefLocked(ref)
}

// HasMnemonForProviderRef reports whether a work matching ref already has at
// least one mnemon. Used to reject duplicate provider selections.
func (s *AppState) HasMnemonForProviderRef(ref types.ProviderRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	work := s.findWorkByRefLocked(ref)
	if work == nil {
		return false
	}
	for _, m := range s.mnemons {
		if m.WorkID == work.ID {
			return true
		}
	}
	return false
}

// AddWork appends a work and returns its ID. The in-memory append is
// synchronous; persistence happens in the background and its failure is
// logged, not surfaced.
func (s *AppState) AddWork(work *types.Work) string {
	s.mu.Lock()
	s.works = append(s.works, work)
	snapshot := *work
	s.mu.Unlock()

	s.tasks.Go("save-work", func(ctx context.Context) error {
		return s.store.SaveWork(ctx, &snapshot)
	})
	s.notify()
	return work.ID
}

// AddMnemon appends a mnemon and returns its position in the shuffled order.
// All existing shuffled indices are reshuffled, then the new mnemon's
// collection index is appended at the end, so a freshly added memory is
// always the last one the user cycles to while everything else re-randomizes.
func (s *AppState) AddMnemon(mnemon *types.Mnemon) int {
	s.mu.Lock()
	newIndex := len(s.mnemons)
	s.mnemons = append(s.mnemons, mnemon)

	s.rng.Shuffle(len(s.shuffled), func(i, j int) {
		s.shuffled[i], s.shuffled[j] = s.shuffled[j], s.shuffled[i]
	})
	s.shuffled = append(s.shuffled, newIndex)
	position := len(s.shuffled) - 1
	snapshot := *mnemon
	s.mu.Unlock()

	s.tasks.Go("save-mnemon", func(ctx context.Context) error {
		return s.store.SaveMnemon(ctx, &snapshot)
	})
	s.notify()
	return position
}

// RemoveMnemon removes the mnemon with the given ID from memory and returns
// it with its original collection index for a potential restore. Storage is
// not touched; the removal becomes durable only via DeleteMnemonPermanently.
// Every remaining shuffled index greater than the removed one is decremented
// (renumbering, not reshuffling) to preserve the permutation.
// ok is false when the ID is unknown.
func (s *AppState) RemoveMnemon(id string) (mnemon *types.Mnemon, originalIndex int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mnemonIdx := -1
	for i, m := range s.mnemons {
		if m.ID == id {
			mnemonIdx = i
			break
		}
	}
	if mnemonIdx < 0 {
		return nil, 0, false
	}
	mnemon = s.mnemons[mnemonIdx]
	s.mnemons = append(s.mnemons[:mnemonIdx], s.mnemons[mnemonIdx+1:]...)

	shuffledPos := -1
	for i, idx := range s.shuffled {
		if idx == mnemonIdx {
			shuffledPos = i
			break
		}
	}
	if shuffledPos >= 0 {
		s.shuffled = append(s.shuffled[:shuffledPos], s.shuffled[shuffledPos+1:]...)
	}
	for i, idx := range s.shuffled {
		if idx > mnemonIdx {
			s.shuffled[i] = idx - 1
		}
	}

	log.Printf("Removed mnemon %s from memory", id)
	return mnemon, mnemonIdx, true
}

// RestoreMnemon is the inverse of RemoveMnemon: it re-inserts the mnemon at
// its original collection index, increments every shuffled index at or above
// it, and places the restored index at position 0 of the shuffled order so
// the restored memory is immediately visible. Storage is untouched (the
// record was never deleted there).
func (s *AppState) RestoreMnemon(mnemon *types.Mnemon, originalIndex int) {
	s.mu.Lock()
	if originalIndex < 0 {
		originalIndex = 0
	}
	if originalIndex > len(s.mnemons) {
		originalIndex = len(s.mnemons)
	}

	for i, idx := range s.shuffled {
		if idx >= originalIndex {
			s.shuffled[i] = idx + 1
		}
	}

	s.mnemons = append(s.mnemons, nil)
	copy(s.mnemons[originalIndex+1:], s.mnemons[originalIndex:])
	s.mnemons[originalIndex] = mnemon

	s.shuffled = append([]int{originalIndex}, s.shuffled...)
	s.mu.Unlock()

	log.Printf("Restored mnemon %s", mnemon.ID)
	s.notify()
}

// DeleteMnemonPermanently purges the mnemon from storage in the background.
// Errors are logged only.
func (s *AppState) DeleteMnemonPermanently(id string) {
	s.tasks.Go("delete-mnemon", func(ctx context.Context) error {
		return s.store.DeleteMnemon(ctx, id)
	})
}

// EditMnemon updates the three editable fields of the mnemon with the given
// ID and persists the updated record in the background. Unknown IDs are a
// silent no-op (the mnemon may have been deleted by a concurrent action).
func (s *AppState) EditMnemon(id, finishedDate string, feelings, notes []string) {
	s.mu.Lock()
	var snapshot types.Mnemon
	found := false
	for _, m := range s.mnemons {
		if m.ID == id {
			m.FinishedDate = finishedDate
			m.Feelings = feelings
			m.Notes = notes
			snapshot = *m
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}

	log.Printf("Updated mnemon %s in memory", id)
	s.tasks.Go("save-mnemon", func(ctx context.Context) error {
		return s.store.SaveMnemon(ctx, &snapshot)
	})
	s.notify()
}

func (s *AppState) findWorkLocked(id string) *types.Work {
	for _, w := range s.works {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (s *AppState) findWorkByRefLocked(ref types.ProviderRef) *types.Work {
	for _, w := range s.works {
		if w.ProviderRef != nil && w.ProviderRef.Matches(ref) {
			return w
		}
	}
	return nil
}
