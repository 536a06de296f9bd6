package game

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type ClientLimits struct {
	Rate  rate.Limit
	Burst int
}

type GameHandler struct {
	hub      *Hub
	handler  MessageHandler
	limits   ClientLimits
	upgrader websocket.Upgrader
}

// NewGameHandler expects origins to be checked by the engine middleware.
func NewGameHandler(hub *Hub, handler MessageHandler, limits ClientLimits) *GameHandler {
	return &GameHandler{
		hub:     hub,
		handler: handler,
		limits:  limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ConnectHandler upgrades the request and serves the participant until the
// socket goes away.
func (h *GameHandler) ConnectHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Warn("WS upgrade failed", "ip", ctx.ClientIP(), "error", err)
		return
	}
	socket := NewGorillaWebSocketWrapper(conn)

	client := NewClient(h.handler, h.limits.Rate, h.limits.Burst)
	h.hub.Register(client)
	slog.Info("Participant connected", "participant", client.ID(), "ip", ctx.ClientIP())

	go client.WritePump(socket)
	client.ReadPump(socket)

	h.hub.Unregister(client.ID())
	slog.Info("Participant disconnected", "participant", client.ID())
}
