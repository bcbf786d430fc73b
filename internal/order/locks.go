package order

import "sync"

// keyedMutex serializes mutations per order id so concurrent payment
// recording cannot race the overpayment check. Entries are retained for the
// process lifetime; the map is bounded by the number of distinct orders
// touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for the given order id and returns its unlock
// function.
func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
