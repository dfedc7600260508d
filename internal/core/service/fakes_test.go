package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Wyydra/callbridge/internal/adapter/driven/signaling"
	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second

type recordingSubscriber struct {
	id string

	mu     sync.Mutex
	events []domain.Event
}

func newRecordingSubscriber(id string) *recordingSubscriber {
	return &recordingSubscriber{id: id}
}

func (s *recordingSubscriber) ID() string { return s.id }

func (s *recordingSubscriber) Handle(event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSubscriber) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func (s *recordingSubscriber) waitForEvents(t *testing.T, n int) []domain.Event {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.Events()) >= n }, waitFor, time.Millisecond)
	return s.Events()
}

// recordingSink collects events synchronously in dispatch order.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Dispatch(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func (s *recordingSink) States() []domain.CallState {
	var states []domain.CallState
	for _, e := range s.Events() {
		if sc, ok := e.(domain.CallStateChangedEvent); ok {
			states = append(states, sc.State)
		}
	}
	return states
}

func (s *recordingSink) Count(kind domain.EventKind) int {
	n := 0
	for _, e := range s.Events() {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func (s *recordingSink) Last(kind domain.EventKind) domain.Event {
	events := s.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind() == kind {
			return events[i]
		}
	}
	return nil
}

type fakeTransport struct {
	mu            sync.Mutex
	registerErr   error
	acceptErr     error
	connectErr    error
	disconnectErr error

	registered   []domain.Credentials
	accepted     []domain.InviteID
	rejected     []domain.InviteID
	connected    []domain.SessionID
	disconnected []domain.SessionID
}

func (f *fakeTransport) ParseMessage(data map[string]string) (domain.SignalingMessage, error) {
	return signaling.ParseMessage(data)
}

func (f *fakeTransport) Register(ctx context.Context, creds domain.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, creds)
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return "fcm-" + creds.PushToken, nil
}

func (f *fakeTransport) Accept(ctx context.Context, invite domain.CallInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, invite.ID)
	return f.acceptErr
}

func (f *fakeTransport) Reject(ctx context.Context, invite domain.CallInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, invite.ID)
	return nil
}

func (f *fakeTransport) Connect(ctx context.Context, sessionID domain.SessionID, accessToken string, params map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, sessionID)
	return f.connectErr
}

func (f *fakeTransport) Disconnect(ctx context.Context, sessionID domain.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, sessionID)
	return f.disconnectErr
}

func (f *fakeTransport) calls(list *[]domain.InviteID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(*list)
}

func (f *fakeTransport) sessionCalls(list *[]domain.SessionID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(*list)
}

func newTestSession(t *testing.T, transport *fakeTransport) (*CallSession, *recordingSink, *InviteRegistry) {
	t.Helper()
	sink := &recordingSink{}
	invites := NewInviteRegistry()
	s, err := NewCallSession(transport, sink, invites, nil, 16)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, sink, invites
}

func invite(id string) domain.CallInvite {
	return domain.NewCallInvite(domain.InviteID(id), map[string]string{"from": "client:alice"})
}
