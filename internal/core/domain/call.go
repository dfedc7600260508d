package domain

import (
	"maps"
	"time"
)

type CallInvite struct {
	ID         InviteID
	Params     map[string]string
	ReceivedAt time.Time
}

func NewCallInvite(id InviteID, params map[string]string) CallInvite {
	return CallInvite{
		ID:         id,
		Params:     maps.Clone(params),
		ReceivedAt: time.Now(),
	}
}

type CancelledInvite struct {
	ID     InviteID
	Reason string
}

// Credentials are what a subscriber hands in to register for incoming calls.
type Credentials struct {
	AccessToken string
	Channel     string
	PushToken   string
}

const DefaultRegistrationChannel = "fcm"

type CallState string

const (
	StateIdle         CallState = "idle"
	StateRinging      CallState = "ringing"
	StateConnecting   CallState = "connecting"
	StateConnected    CallState = "connected"
	StateReconnecting CallState = "reconnecting"
	StateDisconnected CallState = "disconnected"
)

func (s CallState) String() string {
	return string(s)
}

// Active reports whether a session in this state blocks a new one.
func (s CallState) Active() bool {
	return s != StateIdle && s != StateDisconnected
}

type ErrorInfo struct {
	Code    int
	Message string
}
