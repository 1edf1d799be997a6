package repository

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.database = name
		}
	}
}

// WithEventsCollection sets the snapshot collection name.
func WithEventsCollection(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.events = name
		}
	}
}

// WithMatchesCollection sets the live match directory collection name.
func WithMatchesCollection(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.matches = name
		}
	}
}

// WithTTL sets the sliding snapshot lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}
