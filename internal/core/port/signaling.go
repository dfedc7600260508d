package port

import (
	"context"

	"github.com/Wyydra/callbridge/internal/core/domain"
)

// SignalingTransport is the voice backend. Blocking calls are made off the
// caller's goroutine; session progress comes back as domain.TransportEvent
// through whatever callback the adapter was wired with.
type SignalingTransport interface {
	// ParseMessage sniffs a push data map. It returns domain.ErrNotSignaling
	// for foreign payloads and domain.ErrInvalidPayload for malformed ones.
	ParseMessage(data map[string]string) (domain.SignalingMessage, error)
	Register(ctx context.Context, creds domain.Credentials) (string, error)
	Accept(ctx context.Context, invite domain.CallInvite) error
	Reject(ctx context.Context, invite domain.CallInvite) error
	Connect(ctx context.Context, sessionID domain.SessionID, accessToken string, params map[string]string) error
	Disconnect(ctx context.Context, sessionID domain.SessionID) error
}
