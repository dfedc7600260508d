package http

import (
	"net/http"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the host UI origin once it is configurable
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient is a subscriber behind a websocket. Only the dispatcher's
// delivery goroutine writes to conn.
type WSClient struct {
	id   domain.SubscriberID
	conn *websocket.Conn
}

func (c *WSClient) ID() string {
	return c.id.String()
}

func (c *WSClient) Handle(event domain.Event) error {
	return c.conn.WriteJSON(eventDTO(event))
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

func eventDTO(event domain.Event) map[string]interface{} {
	dto := map[string]interface{}{"event": event.Kind()}

	switch e := event.(type) {
	case domain.RegistrationEvent:
		dto["token"] = e.Token
		dto["source"] = e.Source
	case domain.RegistrationErrorEvent:
		dto["message"] = e.Message
		dto["source"] = e.Source
	case domain.NotificationEvent:
		dto["id"] = e.Envelope.ID
		dto["title"] = e.Envelope.Title
		dto["body"] = e.Envelope.Body
		dto["data"] = e.Envelope.Data
		dto["click_action"] = e.Envelope.ClickAction
		dto["link"] = e.Envelope.Link
	case domain.CallInviteEvent:
		dto["invite_id"] = e.InviteID
		dto["params"] = e.Params
		dto["notification_id"] = int64(e.NotificationID)
	case domain.CallCancelledEvent:
		dto["invite_id"] = e.InviteID
		dto["reason"] = e.Reason
	case domain.CallStateChangedEvent:
		dto["session_id"] = e.SessionID
		dto["state"] = e.State
		if e.Error != nil {
			dto["error"] = map[string]interface{}{
				"code":    e.Error.Code,
				"message": e.Error.Message,
			}
		}
	}
	return dto
}

// HTTP handler
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := &WSClient{
		id:   domain.NewSubscriberID(),
		conn: conn,
	}

	l := log.With().Str("client_id", client.ID()).Logger()
	l.Info().Msg("New client connected")

	h.Dispatcher.Attach(client)

	defer func() {
		l.Info().Msg("Client disconnected")
		h.Dispatcher.Detach(client)
		conn.Close()
	}()

	// listening for the host UI
	for {
		type commandDTO struct {
			Type        string            `json:"type"`
			InviteID    string            `json:"invite_id"`
			AccessToken string            `json:"access_token"`
			PushToken   string            `json:"push_token"`
			Channel     string            `json:"channel"`
			Params      map[string]string `json:"params"`
		}

		var req commandDTO
		err := conn.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}

		switch req.Type {
		case "accept_call":
			h.CallSession.AcceptCall(domain.InviteID(req.InviteID))
		case "reject_call":
			h.CallSession.RejectCall(domain.InviteID(req.InviteID))
		case "register":
			h.CallSession.Register(domain.Credentials{
				AccessToken: req.AccessToken,
				Channel:     req.Channel,
				PushToken:   req.PushToken,
			})
		case "place_call":
			if _, err := h.CallSession.PlaceCall(req.Params); err != nil {
				l.Warn().Err(err).Msg("Failed to place call")
			}
		case "hangup":
			h.CallSession.Hangup()
		default:
			l.Warn().Str("type", req.Type).Msg("Unknown command")
		}
	}
}
