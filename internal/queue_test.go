package internal

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSenderQueueSerializesSameSender(t *testing.T) {
	q := newSenderQueue()

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := q.acquire("cosmos1sender")
			defer release()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
	assert.Zero(t, q.len())
}

func TestSenderQueueIndependentSenders(t *testing.T) {
	q := newSenderQueue()

	releaseA := q.acquire("cosmos1a")
	done := make(chan struct{})
	go func() {
		release := q.acquire("cosmos1b")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different sender blocked")
	}

	assert.Equal(t, 1, q.len())
	releaseA()
	assert.Zero(t, q.len())
}
