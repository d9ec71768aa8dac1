package uuid

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

type UUID = uuid.UUID

// New returns a time ordered (version 7) UUID. It falls back to a random
// version 4 UUID if the clock source fails.
func New() UUID {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return u
}

// Timestamp extracts the creation time of a version 7 UUID.
func Timestamp(u UUID) time.Time {
	tsMillis := binary.BigEndian.Uint64(u[0:8]) >> 16 // top 48 bits hold the unix milliseconds
	return time.UnixMilli(int64(tsMillis))
}

func Parse(s string) (UUID, error) {
	return uuid.Parse(s)
}
