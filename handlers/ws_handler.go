package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AnderssonProgramming/code-arena-rt/middleware"
	"github.com/AnderssonProgramming/code-arena-rt/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub       *services.Hub
	games     *services.GameService
	bc        services.Broadcaster
	jwtSecret string
}

func NewWSHandler(hub *services.Hub, games *services.GameService, bc services.Broadcaster, jwtSecret string) *WSHandler {
	return &WSHandler{hub: hub, games: games, bc: bc, jwtSecret: jwtSecret}
}

// Connect upgrades the request to a websocket. Browsers cannot set an
// Authorization header on the upgrade request, so the token travels in
// the query string. An optional game parameter marks the player as
// connected for that game and as disconnected when the socket drops.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	claims, err := middleware.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := h.hub.RegisterClient(conn, userID, username)

	if gameID := c.Query("game"); gameID != "" {
		if err := h.games.SetConnected(c.Request.Context(), gameID, userID, true); err != nil {
			h.bc.ErrorTo(userID, "GAME_UNAVAILABLE", "cannot attach to game stream: "+err.Error())
			return
		}
		client.SetOnClose(func() {
			_ = h.games.SetConnected(context.Background(), gameID, userID, false)
		})

		// resync a reconnecting player with the current state
		if game, err := h.games.GetGameByID(gameID); err == nil {
			h.hub.SendToUser(userID, services.Message{Type: "GAME_STATE", Payload: game})
		}
	}
}
