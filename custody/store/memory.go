// Package store provides in-memory implementations of the custody
// persistence ports, used by tests and the dev server.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/custody-engine/custody"
)

// =============================================================================
// MEMORY DOCUMENT STORE
// =============================================================================

// MemoryDocuments keeps documents in a map. Upsert stores a deep copy and
// Get/GetAll return deep copies, so callers can never mutate stored state
// behind the registry's back.
type MemoryDocuments struct {
	mu   sync.RWMutex
	docs map[custody.DocumentID]*custody.Document
}

func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[custody.DocumentID]*custody.Document)}
}

func (m *MemoryDocuments) Get(_ context.Context, id custody.DocumentID) (*custody.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (m *MemoryDocuments) GetAll(_ context.Context) ([]*custody.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*custody.Document, 0, len(m.docs))
	for _, d := range m.docs {
		result = append(result, d.Clone())
	}
	// Stable order for callers that render lists.
	sort.Slice(result, func(i, j int) bool {
		if result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].UploadedAt.Before(result[j].UploadedAt)
	})
	return result, nil
}

func (m *MemoryDocuments) Upsert(_ context.Context, doc *custody.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc.Clone()
	return nil
}

// =============================================================================
// MEMORY NOTIFICATION STORE
// =============================================================================

type MemoryNotifications struct {
	mu    sync.RWMutex
	notes []custody.Notification
}

func NewMemoryNotifications() *MemoryNotifications {
	return &MemoryNotifications{}
}

func (m *MemoryNotifications) Append(_ context.Context, n custody.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
	return nil
}

func (m *MemoryNotifications) ByUser(_ context.Context, userID custody.UserID) ([]custody.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []custody.Notification
	for _, n := range m.notes {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

func (m *MemoryNotifications) MarkRead(_ context.Context, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notes {
		if m.notes[i].ID == notificationID {
			m.notes[i].Read = true
			return nil
		}
	}
	return nil
}

// =============================================================================
// MEMORY USER DIRECTORY
// =============================================================================

type MemoryUsers struct {
	mu    sync.RWMutex
	users map[custody.UserID]custody.User
}

func NewMemoryUsers(users ...custody.User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[custody.UserID]custody.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MemoryUsers) Add(u custody.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// SaveUser upserts a user. Mirrors the SQLite store so seeding works
// against either backend.
func (m *MemoryUsers) SaveUser(_ context.Context, u custody.User) error {
	m.Add(u)
	return nil
}

func (m *MemoryUsers) Get(_ context.Context, id custody.UserID) (*custody.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryUsers) List(_ context.Context) ([]custody.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]custody.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
