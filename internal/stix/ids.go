package stix

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimestampFormat is ISO-8601 UTC with millisecond precision, the timestamp
// shape STIX 2.1 expects on every object.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// NewID mints a STIX identifier for the given object type,
// e.g. "indicator--3fa85f64-5717-4562-b3fc-2c963f66afa6".
func NewID(objectType string) string {
	return fmt.Sprintf("%s--%s", objectType, uuid.New().String())
}

// Timestamp returns the current time as a STIX timestamp string.
func Timestamp() string {
	return time.Now().UTC().Format(TimestampFormat)
}
