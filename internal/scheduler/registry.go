package scheduler

import "sync"

// The active backend is the connection made for the current invocation. It carries
// the topology snapshot taken at connect time, so a failed Init clears it rather
// than leaving an older snapshot in place.
var (
	activeBackend Backend
	backendMu     sync.RWMutex
)

// SetActiveBackend publishes b as the connection later lookups use. nil clears it.
func SetActiveBackend(b Backend) {
	backendMu.Lock()
	defer backendMu.Unlock()
	activeBackend = b
}

// ActiveBackend returns the published connection, or nil before Init succeeded.
func ActiveBackend() Backend {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return activeBackend
}

// RequireActiveBackend is ActiveBackend for callers that cannot work without a
// connection. It fails with ErrNoActiveBackend.
func RequireActiveBackend() (Backend, error) {
	if b := ActiveBackend(); b != nil {
		return b, nil
	}
	return nil, ErrNoActiveBackend
}

// ClearActiveBackend drops the published connection and its snapshot.
func ClearActiveBackend() {
	SetActiveBackend(nil)
}
