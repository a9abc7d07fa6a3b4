package ledger

import "github.com/google/uuid"

// NewID returns a unique, time-sortable identifier (UUIDv7). Rows created
// later always sort after rows created earlier, which keeps natural
// chronological ordering without relying on wall-clock string prefixes.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is exhausted; fall back to
		// a random id rather than failing the mutation.
		return uuid.NewString()
	}
	return id.String()
}
