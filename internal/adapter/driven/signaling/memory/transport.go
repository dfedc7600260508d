package memory

import (
	"context"
	"sync"

	"github.com/Wyydra/callbridge/internal/adapter/driven/signaling"
	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const (
	CodeInvalidAccessToken = 20101
	CodeBadRequest         = 31400
)

// Transport is an in-process voice backend. Every call succeeds unless the
// credentials are missing, and session progress is reported asynchronously
// through the event callback.
type Transport struct {
	mu      sync.RWMutex
	onEvent func(domain.TransportEvent)
}

func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) SetEventCallback(cb func(domain.TransportEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEvent = cb
}

func (t *Transport) emit(sid domain.SessionID, signals ...domain.SignalType) {
	t.mu.RLock()
	cb := t.onEvent
	t.mu.RUnlock()
	if cb == nil {
		return
	}

	go func() {
		for _, sig := range signals {
			cb(domain.NewTransportEvent(sid, sig, nil))
		}
	}()
}

func (t *Transport) ParseMessage(data map[string]string) (domain.SignalingMessage, error) {
	return signaling.ParseMessage(data)
}

func (t *Transport) Register(ctx context.Context, creds domain.Credentials) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if creds.AccessToken == "" {
		return "", domain.NewRegistrationError(CodeInvalidAccessToken, "Invalid Access Token")
	}
	if creds.PushToken == "" {
		return "", domain.NewRegistrationError(CodeBadRequest, "Missing push token")
	}
	log.Debug().Str("channel", creds.Channel).Msg("Registered with loopback transport")
	return creds.PushToken, nil
}

func (t *Transport) Accept(ctx context.Context, invite domain.CallInvite) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.emit(domain.SessionID(invite.ID), domain.SignalConnected)
	return nil
}

func (t *Transport) Reject(ctx context.Context, invite domain.CallInvite) error {
	return ctx.Err()
}

func (t *Transport) Connect(ctx context.Context, sessionID domain.SessionID, accessToken string, params map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if accessToken == "" {
		return domain.NewConnectError(CodeInvalidAccessToken, "Invalid Access Token")
	}
	t.emit(sessionID, domain.SignalRinging, domain.SignalConnected)
	return nil
}

func (t *Transport) Disconnect(ctx context.Context, sessionID domain.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.emit(sessionID, domain.SignalDisconnected)
	return nil
}
