package ws

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-connection outbound frame buffer.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithReadLimit caps the size of a single inbound frame in bytes.
func WithReadLimit(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// WithOriginPatterns sets the allowed websocket origin patterns. Empty
// means same-origin only.
func WithOriginPatterns(patterns []string) Option {
	return func(h *Hub) {
		h.originPatterns = patterns
	}
}
