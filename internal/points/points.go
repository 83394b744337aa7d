// Package points provides access to the plant's point/tag store, with
// abstraction for testing. The real implementation reads and writes point
// values over MQTT; digital outputs can optionally be routed to local GPIO
// lines. The fake implementation allows testing without a broker.
package points

// Reader reads current point values.
type Reader interface {
	// Read returns a point's current value and whether the reading is
	// usable. Stale, missing or timed-out readings return ok=false; the
	// engine treats those inputs as unavailable, never as a fatal error.
	Read(pointID string) (float64, bool)
}

// Writer writes digital output values.
type Writer interface {
	// Write sets a digital output point. Writing the same value twice is
	// idempotent at the protocol level but is still issued, so the write
	// trail matches commit instants.
	Write(pointID string, value bool) error

	// Close releases the underlying transport.
	Close() error
}

// Router dispatches writes to per-point writers, falling back to a default.
// Used to hard-wire selected interlock outputs to GPIO while everything else
// goes to the broker.
type Router struct {
	fallback Writer
	routes   map[string]Writer
}

// NewRouter creates a Router. routes maps point ids to dedicated writers.
func NewRouter(fallback Writer, routes map[string]Writer) *Router {
	return &Router{fallback: fallback, routes: routes}
}

// Write dispatches to the routed writer for the point, or the fallback.
func (r *Router) Write(pointID string, value bool) error {
	if w, ok := r.routes[pointID]; ok {
		return w.Write(pointID, value)
	}
	return r.fallback.Write(pointID, value)
}

// Close closes every routed writer and the fallback, returning the first
// error encountered.
func (r *Router) Close() error {
	var first error
	seen := make(map[Writer]bool)
	for _, w := range r.routes {
		if seen[w] {
			continue
		}
		seen[w] = true
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := r.fallback.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
