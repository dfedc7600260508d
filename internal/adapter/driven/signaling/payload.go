// Package signaling recognizes voice-signaling push payloads.
package signaling

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Wyydra/callbridge/internal/core/domain"
)

const (
	KeyMessageType = "twi_message_type"
	KeyCallSID     = "twi_call_sid"
	KeyParams      = "twi_params"
	keyCallSIDAlt  = "call_sid"
	keyReason      = "reason"

	MessageTypeCall   = "twilio.voice.call"
	MessageTypeCancel = "twilio.voice.cancel"

	messageTypePrefix = "twilio.voice."
	paramPrefix       = "twi_"
	defaultReason     = "cancelled"
)

// ParseMessage turns a push data map into an invite or a cancellation.
// Payloads without a voice message type are domain.ErrNotSignaling; voice
// payloads that cannot be used are domain.ErrInvalidPayload.
func ParseMessage(data map[string]string) (domain.SignalingMessage, error) {
	msgType, ok := data[KeyMessageType]
	if !ok || !strings.HasPrefix(msgType, messageTypePrefix) {
		return domain.SignalingMessage{}, domain.ErrNotSignaling
	}

	sid := data[KeyCallSID]
	if sid == "" {
		sid = data[keyCallSIDAlt]
	}
	if sid == "" {
		return domain.SignalingMessage{}, fmt.Errorf("%w: %s without call sid", domain.ErrInvalidPayload, msgType)
	}
	id := domain.InviteID(sid)

	switch msgType {
	case MessageTypeCall:
		params, err := callParams(data)
		if err != nil {
			return domain.SignalingMessage{}, err
		}
		invite := domain.NewCallInvite(id, params)
		return domain.SignalingMessage{Invite: &invite}, nil
	case MessageTypeCancel:
		reason := data[keyReason]
		if reason == "" {
			reason = defaultReason
		}
		return domain.SignalingMessage{Cancel: &domain.CancelledInvite{ID: id, Reason: reason}}, nil
	default:
		return domain.SignalingMessage{}, fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidPayload, msgType)
	}
}

// callParams flattens the transport keys (twi_from -> from) and the custom
// parameters encoded in twi_params.
func callParams(data map[string]string) (map[string]string, error) {
	params := make(map[string]string, len(data))
	for k, v := range data {
		switch k {
		case KeyMessageType, KeyCallSID, keyCallSIDAlt, KeyParams:
			continue
		}
		params[strings.TrimPrefix(k, paramPrefix)] = v
	}

	raw, ok := data[KeyParams]
	if !ok || raw == "" {
		return params, nil
	}
	custom, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s: %v", domain.ErrInvalidPayload, KeyParams, err)
	}
	for k := range custom {
		params[k] = custom.Get(k)
	}
	return params, nil
}
