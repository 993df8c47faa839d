package directory

import "github.com/google/uuid"

// IDGenerator generates search ids.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialIDGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 search ids.
//
// UUIDv7 embeds a millisecond timestamp, so ids sort roughly by creation
// time. The directory still orders its search log by seq, never by id.
//
// Thread-safe: uuid.NewV7 is safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
// Panics if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
