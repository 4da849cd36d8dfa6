package websocket

import (
	"context"
	"net/http"
	"time"

	"relaydesk/internal/events"
	"relaydesk/internal/services"
	"relaydesk/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Handler struct {
	tokens *services.TokenService
	hub    *Hub
}

func NewHandler(tokens *services.TokenService, hub *Hub) *Handler {
	return &Handler{tokens: tokens, hub: hub}
}

// Connect upgrades the request and pins the connection to the caller's
// tenant channel. The token arrives as a query parameter because browsers
// cannot set headers on websocket upgrades.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	claims, err := h.tokens.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	businessID, err := uuid.Parse(claims.BusinessID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, claims.UserID, events.ChannelForBusiness(businessID))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}

	h.hub.Unregister(client)
}
