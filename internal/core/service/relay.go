package service

import (
	"sync"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/Wyydra/callbridge/internal/metrics"
	"github.com/rs/zerolog/log"
)

// NotificationRelay keeps the most recent notification that arrived while
// no subscriber was attached. It is a single slot, not a queue.
type NotificationRelay struct {
	mu      sync.Mutex
	pending *domain.NotificationEnvelope
	metrics *metrics.Metrics
}

func NewNotificationRelay(m *metrics.Metrics) *NotificationRelay {
	return &NotificationRelay{metrics: m}
}

// Offer stores env, replacing whatever was pending.
func (r *NotificationRelay) Offer(env domain.NotificationEnvelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil {
		log.Debug().Str("dropped_id", r.pending.ID).Str("notification_id", env.ID).Msg("Replacing pending notification")
		r.metrics.RelayOverwrite()
	}
	r.pending = &env
}

// Drain hands out the pending notification once and empties the slot.
func (r *NotificationRelay) Drain() (domain.NotificationEnvelope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return domain.NotificationEnvelope{}, false
	}
	env := *r.pending
	r.pending = nil
	return env, true
}
