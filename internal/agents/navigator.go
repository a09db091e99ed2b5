package agents

import "sync"

// routeRecorder keeps the last route the controller navigated to so the UI can poll for it.
type routeRecorder struct {
	mu    sync.RWMutex
	route string
}

func (r *routeRecorder) Navigate(route string) {
	r.mu.Lock()
	r.route = route
	r.mu.Unlock()
}

// Reset forgets the recorded route when a new call starts.
func (r *routeRecorder) Reset() {
	r.mu.Lock()
	r.route = ""
	r.mu.Unlock()
}

func (r *routeRecorder) Route() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.route
}
