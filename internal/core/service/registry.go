package service

import (
	"sync"

	"github.com/Wyydra/callbridge/internal/core/domain"
)

// InviteRegistry maps presented invites to the notification shown for them.
// Entries live in memory only.
type InviteRegistry struct {
	mu      sync.Mutex
	entries map[domain.InviteID]domain.NotificationID
}

func NewInviteRegistry() *InviteRegistry {
	return &InviteRegistry{
		entries: make(map[domain.InviteID]domain.NotificationID),
	}
}

// Register records a fresh notification id for inviteID. Registering the
// same invite again replaces its id.
func (r *InviteRegistry) Register(inviteID domain.InviteID) domain.NotificationID {
	id := domain.NewNotificationID()

	r.mu.Lock()
	r.entries[inviteID] = id
	r.mu.Unlock()
	return id
}

func (r *InviteRegistry) Resolve(inviteID domain.InviteID) (domain.NotificationID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[inviteID]
	return id, ok
}

func (r *InviteRegistry) Remove(inviteID domain.InviteID) {
	r.mu.Lock()
	delete(r.entries, inviteID)
	r.mu.Unlock()
}

func (r *InviteRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
