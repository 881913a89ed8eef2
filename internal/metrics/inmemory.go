package metrics

import (
	"sync/atomic"
	"time"
)

// Store operations tracked by ObserveStoreDuration.
const (
	OpList   = "list"
	OpCreate = "create"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated       uint64
	UserConflicts      uint64
	ValidationFailures uint64
	ListCacheHits      uint64
	ListCacheMisses    uint64
	ListQueryCount     uint64
	ListQueryTotalNs   int64
	CreateQueryCount   uint64
	CreateQueryTotalNs int64
}

// InMemoryRecorder stores metrics in memory.
// It backs the /metrics endpoint and is safe for concurrent use.
type InMemoryRecorder struct {
	usersCreated       uint64
	userConflicts      uint64
	validationFailures uint64
	listCacheHits      uint64
	listCacheMisses    uint64
	listQueryCount     uint64
	listQueryTotalNs   int64
	createQueryCount   uint64
	createQueryTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:       atomic.LoadUint64(&m.usersCreated),
		UserConflicts:      atomic.LoadUint64(&m.userConflicts),
		ValidationFailures: atomic.LoadUint64(&m.validationFailures),
		ListCacheHits:      atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses:    atomic.LoadUint64(&m.listCacheMisses),
		ListQueryCount:     atomic.LoadUint64(&m.listQueryCount),
		ListQueryTotalNs:   atomic.LoadInt64(&m.listQueryTotalNs),
		CreateQueryCount:   atomic.LoadUint64(&m.createQueryCount),
		CreateQueryTotalNs: atomic.LoadInt64(&m.createQueryTotalNs),
	}
}

// IncUserCreated increments the created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserConflict increments the duplicate-email counter.
func (m *InMemoryRecorder) IncUserConflict() {
	atomic.AddUint64(&m.userConflicts, 1)
}

// IncValidationFailed increments the rejected-payload counter.
func (m *InMemoryRecorder) IncValidationFailed() {
	atomic.AddUint64(&m.validationFailures, 1)
}

// IncUsersListCacheHit increments the list cache hit counter.
func (m *InMemoryRecorder) IncUsersListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncUsersListCacheMiss increments the list cache miss counter.
func (m *InMemoryRecorder) IncUsersListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// ObserveStoreDuration records a store round-trip. Unknown ops are ignored.
func (m *InMemoryRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	switch op {
	case OpList:
		atomic.AddUint64(&m.listQueryCount, 1)
		atomic.AddInt64(&m.listQueryTotalNs, duration.Nanoseconds())
	case OpCreate:
		atomic.AddUint64(&m.createQueryCount, 1)
		atomic.AddInt64(&m.createQueryTotalNs, duration.Nanoseconds())
	}
}
