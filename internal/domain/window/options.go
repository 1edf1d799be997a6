package window

import "time"

// Option applies a configuration option to the Assigner.
type Option func(*Assigner)

// WithDuration sets the window length.
func WithDuration(d time.Duration) Option {
	return func(a *Assigner) {
		if d > 0 {
			a.duration = d
		}
	}
}
