package pipeline

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency bounds the number of candidates committed in parallel
// per window. Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}
