package client

import (
	"context"
	"sync"
)

// SlotFetcher fetches the bookable times for a room on a date.
type SlotFetcher func(ctx context.Context, roomID, date string) ([]string, error)

// SlotWatcher serializes slot fetches for a selection that changes
// under the user: each Refresh supersedes the previous one, and a
// response belonging to a superseded request is discarded when it
// finally arrives (last request wins). A fetch failure degrades to an
// empty slot list with the error surfaced through apply; it never
// blocks the rest of the flow.
type SlotWatcher struct {
	mu    sync.Mutex
	gen   uint64
	fetch SlotFetcher
	apply func(slots []string, err error)
}

func NewSlotWatcher(fetch SlotFetcher, apply func(slots []string, err error)) *SlotWatcher {
	return &SlotWatcher{fetch: fetch, apply: apply}
}

// Refresh starts a fetch for the given selection. The apply callback
// runs only if no newer Refresh happened in the meantime.
func (w *SlotWatcher) Refresh(ctx context.Context, roomID, date string) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.mu.Unlock()

	go func() {
		slots, err := w.fetch(ctx, roomID, date)

		w.mu.Lock()
		defer w.mu.Unlock()

		if gen != w.gen {
			// A newer request took over while this one was in flight.
			return
		}

		if err != nil {
			w.apply(nil, err)
			return
		}

		w.apply(slots, nil)
	}()
}
