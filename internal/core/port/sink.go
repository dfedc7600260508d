package port

import "github.com/Wyydra/callbridge/internal/core/domain"

// EventSink accepts events for the attached subscriber. Dispatch never
// blocks on delivery.
type EventSink interface {
	Dispatch(event domain.Event)
}
