package port

import "github.com/Wyydra/callbridge/internal/core/domain"

type Subscriber interface {
	ID() string
	Handle(event domain.Event) error
}
