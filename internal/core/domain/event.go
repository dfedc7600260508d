package domain

type EventKind string

const (
	EventRegistration         EventKind = "registration"
	EventRegistrationError    EventKind = "registrationError"
	EventNotificationReceived EventKind = "notificationReceived"
	EventCallInvite           EventKind = "callInvite"
	EventCallCancelled        EventKind = "callCancelled"
	EventCallStateChanged     EventKind = "callStateChanged"
)

// Event is the closed set of things a subscriber can be told about.
type Event interface {
	Kind() EventKind
}

type RegistrationSource string

const (
	SourcePush  RegistrationSource = "push"
	SourceVoice RegistrationSource = "voice"
)

type RegistrationEvent struct {
	Token  string
	Source RegistrationSource
}

type RegistrationErrorEvent struct {
	Message string
	Source  RegistrationSource
}

type NotificationEvent struct {
	Envelope NotificationEnvelope
}

type CallInviteEvent struct {
	InviteID       InviteID
	Params         map[string]string
	NotificationID NotificationID
}

type CallCancelledEvent struct {
	InviteID InviteID
	Reason   string
}

type CallStateChangedEvent struct {
	SessionID SessionID
	State     CallState
	Error     *ErrorInfo
}

func (RegistrationEvent) Kind() EventKind      { return EventRegistration }
func (RegistrationErrorEvent) Kind() EventKind { return EventRegistrationError }
func (NotificationEvent) Kind() EventKind      { return EventNotificationReceived }
func (CallInviteEvent) Kind() EventKind        { return EventCallInvite }
func (CallCancelledEvent) Kind() EventKind     { return EventCallCancelled }
func (CallStateChangedEvent) Kind() EventKind  { return EventCallStateChanged }
