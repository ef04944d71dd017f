package internal

import "sync"

// senderQueue lets one transaction per sender address be in flight at a time.
// Two builds for the same sender would otherwise read the same sequence.
type senderQueue struct {
	mu    sync.Mutex
	slots map[string]*senderSlot
}

type senderSlot struct {
	mu   sync.Mutex
	refs int
}

func newSenderQueue() *senderQueue {
	return &senderQueue{slots: make(map[string]*senderSlot)}
}

// acquire blocks until sender is free and returns the release func.
func (q *senderQueue) acquire(sender string) func() {
	q.mu.Lock()
	slot, ok := q.slots[sender]
	if !ok {
		slot = &senderSlot{}
		q.slots[sender] = slot
	}
	slot.refs++
	q.mu.Unlock()

	slot.mu.Lock()

	return func() {
		slot.mu.Unlock()

		q.mu.Lock()
		slot.refs--
		if slot.refs == 0 {
			delete(q.slots, sender)
		}
		q.mu.Unlock()
	}
}

func (q *senderQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slots)
}
