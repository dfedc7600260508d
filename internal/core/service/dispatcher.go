package service

import (
	"sync"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/Wyydra/callbridge/internal/core/port"
	"github.com/Wyydra/callbridge/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Dispatcher routes events to the one attached subscriber. With nobody
// attached, notifications go to the relay and everything else is dropped.
// It implements port.EventSink.
type Dispatcher struct {
	mu        sync.Mutex
	current   *mailbox
	relay     *NotificationRelay
	metrics   *metrics.Metrics
	queueWarn int
}

func NewDispatcher(relay *NotificationRelay, m *metrics.Metrics, queueWarn int) *Dispatcher {
	return &Dispatcher{
		relay:     relay,
		metrics:   m,
		queueWarn: queueWarn,
	}
}

// Attach makes sub the current subscriber. A pending relay notification is
// delivered to it first.
func (d *Dispatcher) Attach(sub port.Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		log.Info().Str("subscriber_id", d.current.sub.ID()).Str("replaced_by", sub.ID()).Msg("Subscriber replaced")
		d.current.stop()
	}

	d.current = newMailbox(sub, d.queueWarn)
	d.metrics.SubscriberAttached(true)
	log.Info().Str("subscriber_id", sub.ID()).Msg("Subscriber attached")

	if env, ok := d.relay.Drain(); ok {
		log.Debug().Str("notification_id", env.ID).Msg("Replaying pending notification")
		d.current.push(domain.NotificationEvent{Envelope: env})
		d.metrics.Event(string(domain.EventNotificationReceived), metrics.OutcomeQueued)
	}
}

// Detach clears sub only if it is still the current subscriber, so a late
// detach cannot undo a newer attach.
func (d *Dispatcher) Detach(sub port.Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil || d.current.sub != sub {
		log.Debug().Str("subscriber_id", sub.ID()).Msg("Ignoring detach of stale subscriber")
		return
	}
	d.current.stop()
	d.current = nil
	d.metrics.SubscriberAttached(false)
	log.Info().Str("subscriber_id", sub.ID()).Msg("Subscriber detached")
}

func (d *Dispatcher) Attached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil
}

func (d *Dispatcher) Dispatch(event domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kind := string(event.Kind())
	if d.current != nil {
		d.current.push(event)
		d.metrics.Event(kind, metrics.OutcomeQueued)
		return
	}

	if n, ok := event.(domain.NotificationEvent); ok {
		d.relay.Offer(n.Envelope)
		d.metrics.Event(kind, metrics.OutcomeBuffered)
		log.Debug().Str("notification_id", n.Envelope.ID).Msg("No subscriber attached, notification kept for replay")
		return
	}

	d.metrics.Event(kind, metrics.OutcomeDropped)
	log.Warn().Str("kind", kind).Msg("No subscriber attached, dropping event")
}

// Stop detaches whoever is attached.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		d.current.stop()
		d.current = nil
		d.metrics.SubscriberAttached(false)
	}
}

// mailbox delivers events to one subscriber on its own goroutine, in push
// order. After stop it finishes what was already queued and exits.
type mailbox struct {
	sub       port.Subscriber
	queueWarn int

	mu    sync.Mutex
	queue []domain.Event

	wake     chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newMailbox(sub port.Subscriber, queueWarn int) *mailbox {
	mb := &mailbox{
		sub:       sub,
		queueWarn: queueWarn,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go mb.run()
	return mb
}

func (mb *mailbox) push(event domain.Event) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, event)
	n := len(mb.queue)
	mb.mu.Unlock()

	if mb.queueWarn > 0 && n == mb.queueWarn {
		log.Warn().Str("subscriber_id", mb.sub.ID()).Int("queued", n).Msg("Subscriber is falling behind")
	}

	select {
	case mb.wake <- struct{}{}:
	default:
	}
}

func (mb *mailbox) next() (domain.Event, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if len(mb.queue) == 0 {
		return nil, false
	}
	event := mb.queue[0]
	mb.queue[0] = nil
	mb.queue = mb.queue[1:]
	return event, true
}

func (mb *mailbox) deliver(event domain.Event) {
	if err := mb.sub.Handle(event); err != nil {
		log.Error().Err(err).Str("subscriber_id", mb.sub.ID()).Str("kind", string(event.Kind())).Msg("Error delivering event")
	}
}

func (mb *mailbox) run() {
	defer close(mb.done)
	for {
		if event, ok := mb.next(); ok {
			mb.deliver(event)
			continue
		}

		select {
		case <-mb.wake:
		case <-mb.quit:
			for {
				event, ok := mb.next()
				if !ok {
					return
				}
				mb.deliver(event)
			}
		}
	}
}

func (mb *mailbox) stop() {
	mb.stopOnce.Do(func() { close(mb.quit) })
}
