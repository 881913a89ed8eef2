package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserCreated is a no-op.
func (n *NoopRecorder) IncUserCreated() {}

// IncUserConflict is a no-op.
func (n *NoopRecorder) IncUserConflict() {}

// IncValidationFailed is a no-op.
func (n *NoopRecorder) IncValidationFailed() {}

// IncUsersListCacheHit is a no-op.
func (n *NoopRecorder) IncUsersListCacheHit() {}

// IncUsersListCacheMiss is a no-op.
func (n *NoopRecorder) IncUsersListCacheMiss() {}

// ObserveStoreDuration is a no-op.
func (n *NoopRecorder) ObserveStoreDuration(op string, duration time.Duration) {}
