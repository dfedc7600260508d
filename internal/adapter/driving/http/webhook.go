package http

import (
	"encoding/json"
	"net/http"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 64 << 10

type pushNotificationDTO struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action"`
	Link        string `json:"link"`
}

type pushMessageDTO struct {
	From         string               `json:"from"`
	MessageID    string               `json:"message_id"`
	Data         map[string]string    `json:"data"`
	Notification *pushNotificationDTO `json:"notification"`
}

type tokenDTO struct {
	Token string `json:"token"`
}

type signalDTO struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
		http.Error(w, "invalid body", http.StatusBadRequest)
		return false
	}
	return true
}

// ReceivePush is the push transport's delivery hook.
func (h *Handler) ReceivePush(w http.ResponseWriter, r *http.Request) {
	var req pushMessageDTO
	if !decode(w, r, &req) {
		return
	}

	var n *domain.PushNotification
	if req.Notification != nil {
		n = &domain.PushNotification{
			Title:       req.Notification.Title,
			Body:        req.Notification.Body,
			ClickAction: req.Notification.ClickAction,
			Link:        req.Notification.Link,
		}
	}

	h.PushService.OnPayloadReceived(domain.NewPayload(req.From, req.MessageID, req.Data, n))
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req tokenDTO
	if !decode(w, r, &req) {
		return
	}
	if req.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	h.PushService.OnTokenRefreshed(req.Token)
	w.WriteHeader(http.StatusAccepted)
}

// ReceiveSignal is the voice backend's status callback.
func (h *Handler) ReceiveSignal(w http.ResponseWriter, r *http.Request) {
	var req signalDTO
	if !decode(w, r, &req) {
		return
	}

	sig := domain.SignalType(req.Type)
	switch sig {
	case domain.SignalRinging, domain.SignalConnected, domain.SignalReconnecting,
		domain.SignalReconnected, domain.SignalDisconnected, domain.SignalConnectFailure:
	default:
		http.Error(w, "unknown signal type", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	var errInfo *domain.ErrorInfo
	if req.Code != 0 || req.Message != "" {
		errInfo = domain.NewConnectError(req.Code, req.Message).Info()
	}

	h.CallSession.OnTransportEvent(domain.NewTransportEvent(domain.SessionID(req.SessionID), sig, errInfo))
	w.WriteHeader(http.StatusAccepted)
}
