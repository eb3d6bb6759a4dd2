package assignment

import (
	"sync"

	"github.com/zeebo/xxh3"
)

const defaultLockStripes = 256

// stripedLocks serialises work per key using a fixed pool of mutexes. Distinct
// keys may share a stripe; equal keys always do.
type stripedLocks struct {
	stripes []sync.Mutex
}

func newStripedLocks(n int) *stripedLocks {
	if n <= 0 {
		n = defaultLockStripes
	}
	return &stripedLocks{stripes: make([]sync.Mutex, n)}
}

// lock acquires the stripe for key and returns its unlock func.
func (l *stripedLocks) lock(key string) func() {
	m := &l.stripes[xxh3.HashString(key)%uint64(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
