package service

import (
	"context"
	"sync"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/Wyydra/callbridge/internal/core/port"
	"github.com/Wyydra/callbridge/internal/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"
)

const (
	evInvite       = "invite"
	evCancel       = "cancel"
	evReject       = "reject"
	evAccept       = "accept"
	evDial         = "dial"
	evRinging      = "ringing"
	evConnected    = "connected"
	evReconnecting = "reconnecting"
	evReconnected  = "reconnected"
	evDisconnect   = "disconnect"
	evReset        = "reset"
)

var (
	sIdle         = string(domain.StateIdle)
	sRinging      = string(domain.StateRinging)
	sConnecting   = string(domain.StateConnecting)
	sConnected    = string(domain.StateConnected)
	sReconnecting = string(domain.StateReconnecting)
	sDisconnected = string(domain.StateDisconnected)
)

type Snapshot struct {
	State     domain.CallState
	SessionID domain.SessionID
	InviteID  domain.InviteID
	Outgoing  bool
	LastError *domain.ErrorInfo
}

// CallSession owns the single call session. Subscriber commands, push
// payloads and transport callbacks all serialize on mu; transport calls are
// made from separate goroutines and report back through the same lock.
type CallSession struct {
	transport port.SignalingTransport
	sink      port.EventSink
	invites   *InviteRegistry
	metrics   *metrics.Metrics

	mu            sync.Mutex
	state         *fsm.FSM
	sessionID     domain.SessionID
	invite        *domain.CallInvite
	outgoing      bool
	lastErr       *domain.ErrorInfo
	transitionErr *domain.ErrorInfo
	accessToken   string
	finished      *lru.Cache[domain.SessionID, struct{}]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCallSession(transport port.SignalingTransport, sink port.EventSink, invites *InviteRegistry, m *metrics.Metrics, finishedSessions int) (*CallSession, error) {
	finished, err := lru.New[domain.SessionID, struct{}](finishedSessions)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &CallSession{
		transport: transport,
		sink:      sink,
		invites:   invites,
		metrics:   m,
		finished:  finished,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.initStateMachine()
	return s, nil
}

func (s *CallSession) initStateMachine() {
	active := []string{sRinging, sConnecting, sConnected, sReconnecting}
	s.state = fsm.NewFSM(
		sIdle,
		fsm.Events{
			{Name: evInvite, Src: []string{sIdle}, Dst: sRinging},
			{Name: evCancel, Src: []string{sRinging}, Dst: sIdle},
			{Name: evReject, Src: []string{sRinging}, Dst: sIdle},
			{Name: evAccept, Src: []string{sRinging}, Dst: sConnecting},
			{Name: evDial, Src: []string{sIdle, sDisconnected}, Dst: sConnecting},
			{Name: evRinging, Src: []string{sConnecting}, Dst: sRinging},
			{Name: evConnected, Src: []string{sConnecting, sRinging}, Dst: sConnected},
			{Name: evReconnecting, Src: []string{sConnected}, Dst: sReconnecting},
			{Name: evReconnected, Src: []string{sReconnecting}, Dst: sConnected},
			{Name: evDisconnect, Src: active, Dst: sDisconnected},
			{Name: evReset, Src: []string{sDisconnected}, Dst: sIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.handleStateChange(e)
			},
		},
	)
}

// handleStateChange runs inside fire, with mu held.
func (s *CallSession) handleStateChange(e *fsm.Event) {
	s.metrics.Transition(e.Src, e.Dst)
	log.Debug().Str("session_id", s.sessionID.String()).Str("from", e.Src).Str("to", e.Dst).Msg("Call state changed")

	s.sink.Dispatch(domain.CallStateChangedEvent{
		SessionID: s.sessionID,
		State:     domain.CallState(e.Dst),
		Error:     s.transitionErr,
	})
}

func (s *CallSession) fire(event string, errInfo *domain.ErrorInfo) {
	s.transitionErr = errInfo
	defer func() { s.transitionErr = nil }()

	if err := s.state.Event(context.Background(), event); err != nil {
		log.Error().Err(err).Str("event", event).Str("state", s.state.Current()).Msg("Call state machine rejected event")
	}
}

func (s *CallSession) current() domain.CallState {
	return domain.CallState(s.state.Current())
}

func (s *CallSession) pendingInvite(id domain.InviteID) bool {
	return s.current() == domain.StateRinging && !s.outgoing && s.invite != nil && s.invite.ID == id
}

func (s *CallSession) clearSession() {
	s.sessionID = ""
	s.invite = nil
	s.outgoing = false
}

func (s *CallSession) async(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *CallSession) State() domain.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *CallSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:     s.current(),
		SessionID: s.sessionID,
		Outgoing:  s.outgoing,
	}
	if s.invite != nil {
		snap.InviteID = s.invite.ID
	}
	if s.lastErr != nil {
		e := *s.lastErr
		snap.LastError = &e
	}
	return snap
}

// Register hands creds to the transport and reports the outcome as a
// registration or registrationError event. Session state is untouched.
func (s *CallSession) Register(creds domain.Credentials) {
	if creds.Channel == "" {
		creds.Channel = domain.DefaultRegistrationChannel
	}

	s.mu.Lock()
	s.accessToken = creds.AccessToken
	s.mu.Unlock()

	s.async(func(ctx context.Context) {
		token, err := s.transport.Register(ctx, creds)
		if err != nil {
			te := domain.AsTransportError(domain.TransportRegistration, err)
			log.Error().Err(te).Str("channel", creds.Channel).Msg("Voice registration failed")
			s.sink.Dispatch(domain.RegistrationErrorEvent{Message: te.Error(), Source: domain.SourceVoice})
			return
		}
		log.Info().Str("channel", creds.Channel).Msg("Voice registration succeeded")
		s.sink.Dispatch(domain.RegistrationEvent{Token: token, Source: domain.SourceVoice})
	})
}

// ReceiveInvite starts ringing for invite. It is only legal from idle; any
// other state means the transport misbehaved and the invite is dropped.
func (s *CallSession) ReceiveInvite(invite domain.CallInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sid := domain.SessionID(invite.ID)
	if s.finished.Contains(sid) {
		log.Debug().Str("invite_id", invite.ID.String()).Msg("Ignoring invite for finished session")
		return domain.ErrStaleOperation
	}
	if s.current() != domain.StateIdle {
		log.Warn().
			Str("invite_id", invite.ID.String()).
			Str("state", s.current().String()).
			Str("session_id", s.sessionID.String()).
			Msg("Invite received while a session is active, dropping")
		return domain.ErrProtocolViolation
	}

	s.sessionID = sid
	s.invite = &invite
	s.outgoing = false
	s.lastErr = nil

	notificationID := s.invites.Register(invite.ID)
	s.fire(evInvite, nil)
	s.sink.Dispatch(domain.CallInviteEvent{
		InviteID:       invite.ID,
		Params:         invite.Params,
		NotificationID: notificationID,
	})
	log.Info().Str("invite_id", invite.ID.String()).Str("notification_id", notificationID.String()).Msg("Incoming call")
	return nil
}

// ReceiveCancellation ends a ringing invite with the same id. Anything else
// is a no-op.
func (s *CallSession) ReceiveCancellation(c domain.CancelledInvite) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pendingInvite(c.ID) {
		log.Debug().Str("invite_id", c.ID.String()).Msg("Ignoring cancellation without a matching ringing invite")
		return
	}

	s.invites.Remove(c.ID)
	s.finished.Add(s.sessionID, struct{}{})
	s.sink.Dispatch(domain.CallCancelledEvent{InviteID: c.ID, Reason: c.Reason})
	s.fire(evCancel, nil)
	s.clearSession()
	log.Info().Str("invite_id", c.ID.String()).Str("reason", c.Reason).Msg("Incoming call cancelled")
}

// AcceptCall answers the ringing invite inviteID.
func (s *CallSession) AcceptCall(inviteID domain.InviteID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pendingInvite(inviteID) {
		log.Debug().Str("invite_id", inviteID.String()).Msg("Ignoring accept for unknown invite")
		return
	}

	invite := *s.invite
	sid := s.sessionID
	s.invites.Remove(inviteID)
	s.fire(evAccept, nil)

	s.async(func(ctx context.Context) {
		err := s.transport.Accept(ctx, invite)
		s.applyConnectResult(sid, err, true)
	})
}

// RejectCall declines the ringing invite inviteID.
func (s *CallSession) RejectCall(inviteID domain.InviteID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pendingInvite(inviteID) {
		log.Debug().Str("invite_id", inviteID.String()).Msg("Ignoring reject for unknown invite")
		return
	}
	s.reject()
}

// reject declines the pending invite. mu must be held.
func (s *CallSession) reject() {
	invite := *s.invite
	s.invites.Remove(invite.ID)
	s.finished.Add(s.sessionID, struct{}{})
	s.fire(evReject, nil)
	s.clearSession()

	s.async(func(ctx context.Context) {
		if err := s.transport.Reject(ctx, invite); err != nil {
			log.Error().Err(err).Str("invite_id", invite.ID.String()).Msg("Transport failed to reject invite")
		}
	})
	log.Info().Str("invite_id", invite.ID.String()).Msg("Incoming call rejected")
}

// PlaceCall starts an outgoing call with the access token of the last
// registration.
func (s *CallSession) PlaceCall(params map[string]string) (domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current().Active() {
		return "", domain.ErrSessionActive
	}

	sid := domain.NewSessionID()
	s.sessionID = sid
	s.invite = nil
	s.outgoing = true
	s.lastErr = nil
	s.fire(evDial, nil)

	token := s.accessToken
	s.async(func(ctx context.Context) {
		err := s.transport.Connect(ctx, sid, token, params)
		s.applyConnectResult(sid, err, false)
	})
	log.Info().Str("session_id", sid.String()).Msg("Outgoing call")
	return sid, nil
}

// Hangup ends whatever session is active. A ringing incoming call is
// rejected instead.
func (s *CallSession) Hangup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invite != nil && s.pendingInvite(s.invite.ID) {
		s.reject()
		return
	}
	if !s.current().Active() {
		return
	}

	sid := s.sessionID
	s.async(func(ctx context.Context) {
		if err := s.transport.Disconnect(ctx, sid); err != nil {
			log.Error().Err(err).Str("session_id", sid.String()).Msg("Transport failed to disconnect, ending session locally")
			s.OnTransportEvent(domain.NewTransportEvent(sid, domain.SignalDisconnected, nil))
		}
	})
}

func (s *CallSession) applyConnectResult(sid domain.SessionID, err error, connectOnSuccess bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sid != s.sessionID || s.finished.Contains(sid) {
		return
	}
	if err != nil {
		te := domain.AsTransportError(domain.TransportConnect, err)
		log.Error().Err(te).Str("session_id", sid.String()).Msg("Call failed to connect")
		s.disconnect(te.Info())
		return
	}
	if connectOnSuccess && s.current() == domain.StateConnecting {
		s.fire(evConnected, nil)
	}
}

// OnTransportEvent applies a transport callback to the current session.
// Events for finished or unknown sessions are ignored.
func (s *CallSession) OnTransportEvent(ev domain.TransportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := log.With().Str("session_id", ev.SessionID.String()).Str("signal", string(ev.Type)).Logger()
	if s.finished.Contains(ev.SessionID) {
		l.Debug().Msg("Ignoring transport event for finished session")
		return
	}
	if ev.SessionID != s.sessionID || !s.current().Active() {
		l.Debug().Msg("Ignoring transport event for unknown session")
		return
	}

	ringingInvite := s.current() == domain.StateRinging && !s.outgoing

	switch ev.Type {
	case domain.SignalRinging:
		if s.outgoing && s.state.Can(evRinging) {
			s.fire(evRinging, nil)
		}
	case domain.SignalConnected:
		if !ringingInvite && s.state.Can(evConnected) {
			s.fire(evConnected, nil)
		}
	case domain.SignalReconnecting:
		if s.state.Can(evReconnecting) {
			s.fire(evReconnecting, ev.Error)
		}
	case domain.SignalReconnected:
		if s.state.Can(evReconnected) {
			s.fire(evReconnected, nil)
		}
	case domain.SignalDisconnected:
		s.disconnect(ev.Error)
	case domain.SignalConnectFailure:
		errInfo := ev.Error
		if errInfo == nil {
			errInfo = domain.NewConnectError(0, "connect failure").Info()
		}
		s.disconnect(errInfo)
	default:
		l.Warn().Msg("Unknown transport event")
	}
}

// disconnect drives the session through disconnected back to idle. mu must
// be held.
func (s *CallSession) disconnect(errInfo *domain.ErrorInfo) {
	sid := s.sessionID
	if s.invite != nil {
		s.invites.Remove(s.invite.ID)
	}
	s.lastErr = errInfo
	s.finished.Add(sid, struct{}{})

	s.fire(evDisconnect, errInfo)
	s.fire(evReset, nil)
	s.clearSession()

	e := log.Info()
	if errInfo != nil {
		e = log.Warn().Int("code", errInfo.Code).Str("error", errInfo.Message)
	}
	e.Str("session_id", sid.String()).Msg("Call disconnected")
}

// Close waits for in-flight transport calls after cancelling their context.
func (s *CallSession) Close() {
	s.cancel()
	s.wg.Wait()
}
