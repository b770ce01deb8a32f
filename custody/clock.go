/*
clock.go - Time and identity sources

PURPOSE:
  Wall-clock reads and ID generation are injected so tests can pin both.
  Identity is never derived from time: IDs come from a UUID allocator,
  and time is used only for workflow ordering (with the monotonic clamp
  applied in workflow.go).

SEE ALSO:
  - workflow.go: Clamps clock reads against the last workflow entry
  - registry.go: Consumes both interfaces
*/
package custody

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Production uses SystemClock; tests
// inject a fixed or stepping clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator allocates unique identifiers for documents, possession
// records, workflow steps, comments, and notifications.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator allocates random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
