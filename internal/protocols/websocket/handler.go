package websocket

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"

	"missionhub/pkg/config"
	"missionhub/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin filtering happens at the gateway
	},
}

// Handler upgrades authenticated requests into notification connections
type Handler struct {
	hub *Hub
	jwt config.JWTConfig
}

// NewHandler creates a websocket handler bound to the hub
func NewHandler(hub *Hub, jwtCfg config.JWTConfig) *Handler {
	return &Handler{hub: hub, jwt: jwtCfg}
}

// HandleNotifications is the GET /ws/notifications endpoint. Browsers
// cannot set headers on websocket dials, so the token rides in a query
// parameter.
func (h *Handler) HandleNotifications(c *gin.Context) {
	userID, err := h.authenticate(c.Query("token"))
	if err != nil {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("websocket upgrade failed for user %s: %v", userID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}

	if !h.hub.register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection limit reached"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Status reports hub connectivity, for health dashboards
func (h *Handler) Status(c *gin.Context) {
	c.JSON(200, gin.H{"connected_users": h.hub.ConnectedUsers()})
}

type wsClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) authenticate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("missing token")
	}

	claims := &wsClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwt.Secret), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("invalid token")
	}
	if h.jwt.Issuer != "" && claims.Issuer != h.jwt.Issuer {
		return "", fmt.Errorf("invalid issuer")
	}
	return claims.UserID, nil
}
