package domain

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SubscriberID uuid.UUID

func NewSubscriberID() SubscriberID {
	return SubscriberID(uuid.New())
}

func (id SubscriberID) String() string {
	return uuid.UUID(id).String()
}

// InviteID is the transport-assigned call identifier (the call SID).
type InviteID string

func (id InviteID) String() string {
	return string(id)
}

// SessionID names one logical call session. Incoming calls reuse the
// invite id, outgoing calls get a fresh uuid.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (s SessionID) String() string {
	return string(s)
}

type NotificationID int64

func (id NotificationID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

var lastNotificationID atomic.Int64

// NewNotificationID is time-derived but strictly increasing, so two invites
// in the same millisecond still get distinct ids.
func NewNotificationID() NotificationID {
	now := time.Now().UnixMilli()
	for {
		prev := lastNotificationID.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if lastNotificationID.CompareAndSwap(prev, next) {
			return NotificationID(next)
		}
	}
}
