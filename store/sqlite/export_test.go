package sqlite

import "time"

// SetClock replaces the store's timestamp source for tests.
func (s *Store) SetClock(fn func() time.Time) {
	s.conn.now = fn
}
