package domain

import "maps"

// PushNotification is the display block a push may carry next to its data.
type PushNotification struct {
	Title       string
	Body        string
	ClickAction string
	Link        string
}

// Payload is one message delivered by the push transport.
type Payload struct {
	SenderID     string
	MessageID    string
	Data         map[string]string
	Notification *PushNotification
}

func NewPayload(senderID, messageID string, data map[string]string, n *PushNotification) Payload {
	p := Payload{
		SenderID:  senderID,
		MessageID: messageID,
		Data:      maps.Clone(data),
	}
	if p.Data == nil {
		p.Data = map[string]string{}
	}
	if n != nil {
		cp := *n
		p.Notification = &cp
	}
	return p
}

func (p Payload) IsEmpty() bool {
	return len(p.Data) == 0 && p.Notification == nil
}
