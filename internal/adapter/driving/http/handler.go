package http

import (
	"net/http"

	"github.com/Wyydra/callbridge/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	Dispatcher  *service.Dispatcher
	CallSession *service.CallSession
	PushService *service.PushService
	Metrics     http.Handler
}

// NewHandler wires the HTTP surface. metrics may be nil to leave /metrics
// unrouted.
func NewHandler(dispatcher *service.Dispatcher, calls *service.CallSession, push *service.PushService, metrics http.Handler) *Handler {
	return &Handler{
		Dispatcher:  dispatcher,
		CallSession: calls,
		PushService: push,
		Metrics:     metrics,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", h.ServeWS)

	r.Route("/push", func(r chi.Router) {
		r.Post("/messages", h.ReceivePush)
		r.Post("/token", h.RefreshToken)
	})
	r.Post("/signaling/events", h.ReceiveSignal)

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	return r
}
