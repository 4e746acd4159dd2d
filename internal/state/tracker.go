package state

import "sync"

const trackerStripes = 64

// Tracker serializes handling per chat id. Two concurrent updates for the
// same chat (a double-tapped button, a fast second message) would otherwise
// race on the read-act-clear sequence over Storage; the tracker makes that
// sequence one critical section per chat. Distinct chats map to independent
// stripes and proceed in parallel.
type Tracker struct {
	stripes [trackerStripes]sync.Mutex
}

// NewTracker builds a Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Do runs fn while holding the stripe lock for chatID.
func (t *Tracker) Do(chatID int64, fn func() error) error {
	lock := &t.stripes[stripeIndex(chatID)]
	lock.Lock()
	defer lock.Unlock()

	return fn()
}

func stripeIndex(chatID int64) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % trackerStripes)
}
