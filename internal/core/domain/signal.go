package domain

// SignalType is what the signaling transport reports about a session.
type SignalType string

const (
	SignalRinging        SignalType = "ringing"
	SignalConnected      SignalType = "connected"
	SignalReconnecting   SignalType = "reconnecting"
	SignalReconnected    SignalType = "reconnected"
	SignalDisconnected   SignalType = "disconnected"
	SignalConnectFailure SignalType = "connect_failure"
)

type TransportEvent struct {
	SessionID SessionID
	Type      SignalType
	Error     *ErrorInfo
}

func NewTransportEvent(sessionID SessionID, t SignalType, err *ErrorInfo) TransportEvent {
	return TransportEvent{
		SessionID: sessionID,
		Type:      t,
		Error:     err,
	}
}

// SignalingMessage is a push payload the transport recognized as its own.
// Exactly one of Invite and Cancel is set.
type SignalingMessage struct {
	Invite *CallInvite
	Cancel *CancelledInvite
}
