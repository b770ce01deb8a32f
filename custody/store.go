/*
store.go - Persistence ports for documents, notifications, and users

PURPOSE:
  Defines the interfaces between the engine and storage. The registry
  talks only to these ports; implementations live in custody/store
  (in-memory) and store/sqlite (durable).

CONTRACTS:
  DocumentStore:     keyed by document identity; Upsert must be atomic
                     per key. The registry serializes writes per document,
                     so implementations never see two concurrent writes
                     to the same identity.
  NotificationStore: keyed by recipient; append and mark-read only.
  UserDirectory:     read-only identity lookup.

  Get returns (nil, nil) for an unknown identity; the registry converts
  that to ErrDocumentNotFound so stores stay ignorant of the taxonomy.

IMPLEMENTATIONS:
  - store/memory.go:        In-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite, for production

SEE ALSO:
  - registry.go: The only mutating caller
*/
package custody

import "context"

// DocumentStore persists documents keyed by identity.
type DocumentStore interface {
	// Get returns the document or (nil, nil) when unknown.
	Get(ctx context.Context, id DocumentID) (*Document, error)

	// GetAll returns every document, order unspecified.
	GetAll(ctx context.Context) ([]*Document, error)

	// Upsert writes the document atomically under its identity.
	Upsert(ctx context.Context, doc *Document) error
}

// NotificationStore persists notifications keyed by recipient.
type NotificationStore interface {
	Append(ctx context.Context, n Notification) error

	// ByUser returns the recipient's notifications, newest first.
	ByUser(ctx context.Context, userID UserID) ([]Notification, error)

	// MarkRead flips the read flag. Unknown IDs are a no-op.
	MarkRead(ctx context.Context, notificationID string) error
}

// UserDirectory resolves user identities supplied by the identity
// provider. Read-only from the engine's perspective.
type UserDirectory interface {
	// Get returns the user or (nil, nil) when unknown.
	Get(ctx context.Context, id UserID) (*User, error)

	// List returns all known users.
	List(ctx context.Context) ([]User, error)
}
