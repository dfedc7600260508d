package domain

import (
	"errors"
	"maps"
)

const (
	keyTitle       = "title"
	keyBody        = "body"
	keyClickAction = "click_action"
	keyLink        = "link"
)

type NotificationEnvelope struct {
	ID          string
	Title       string
	Body        string
	Data        map[string]string
	ClickAction string
	Link        string
}

// NewNotificationEnvelope builds the generic form of a push. Display fields
// come from the notification block when present and fall back to data keys.
func NewNotificationEnvelope(p Payload) (*NotificationEnvelope, error) {
	if p.IsEmpty() {
		return nil, errors.New("payload has neither data nor notification")
	}

	env := &NotificationEnvelope{
		ID:          p.MessageID,
		Data:        maps.Clone(p.Data),
		Title:       p.Data[keyTitle],
		Body:        p.Data[keyBody],
		ClickAction: p.Data[keyClickAction],
		Link:        p.Data[keyLink],
	}

	if n := p.Notification; n != nil {
		env.Title = n.Title
		env.Body = n.Body
		env.ClickAction = n.ClickAction
		env.Link = n.Link
	}
	return env, nil
}
