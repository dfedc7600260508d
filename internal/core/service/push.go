package service

import (
	"errors"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/Wyydra/callbridge/internal/core/port"
	"github.com/Wyydra/callbridge/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	classSignaling = "signaling"
	classGeneric   = "generic"
	classInvalid   = "invalid"
	classViolation = "protocol_violation"
)

// PushService is the entry point for the push transport. It splits payloads
// into voice signaling, which drives the call session, and everything else,
// which becomes a generic notification.
type PushService struct {
	transport port.SignalingTransport
	calls     *CallSession
	sink      port.EventSink
	metrics   *metrics.Metrics
}

func NewPushService(transport port.SignalingTransport, calls *CallSession, sink port.EventSink, m *metrics.Metrics) *PushService {
	return &PushService{
		transport: transport,
		calls:     calls,
		sink:      sink,
		metrics:   m,
	}
}

func (s *PushService) OnPayloadReceived(p domain.Payload) {
	l := log.With().Str("sender_id", p.SenderID).Str("message_id", p.MessageID).Logger()

	if p.IsEmpty() {
		l.Warn().Msg("Dropping empty push payload")
		s.metrics.Payload(classInvalid)
		return
	}

	if len(p.Data) > 0 {
		msg, err := s.transport.ParseMessage(p.Data)
		switch {
		case err == nil:
			s.handleSignaling(msg)
			return
		case !errors.Is(err, domain.ErrNotSignaling):
			l.Warn().Err(err).Msg("Dropping invalid signaling payload")
			s.metrics.Payload(classInvalid)
			return
		}
	}

	env, err := domain.NewNotificationEnvelope(p)
	if err != nil {
		l.Warn().Err(err).Msg("Dropping push payload")
		s.metrics.Payload(classInvalid)
		return
	}
	s.metrics.Payload(classGeneric)
	s.sink.Dispatch(domain.NotificationEvent{Envelope: *env})
}

func (s *PushService) handleSignaling(msg domain.SignalingMessage) {
	switch {
	case msg.Invite != nil:
		err := s.calls.ReceiveInvite(*msg.Invite)
		if errors.Is(err, domain.ErrProtocolViolation) {
			s.metrics.Payload(classViolation)
			return
		}
		s.metrics.Payload(classSignaling)
	case msg.Cancel != nil:
		s.calls.ReceiveCancellation(*msg.Cancel)
		s.metrics.Payload(classSignaling)
	default:
		log.Warn().Msg("Signaling message without invite or cancellation")
		s.metrics.Payload(classInvalid)
	}
}

func (s *PushService) OnTokenRefreshed(token string) {
	if token == "" {
		log.Warn().Msg("Ignoring empty push token")
		return
	}
	log.Info().Msg("Push token refreshed")
	s.sink.Dispatch(domain.RegistrationEvent{Token: token, Source: domain.SourcePush})
}
