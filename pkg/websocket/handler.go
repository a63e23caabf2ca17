package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
	Client          ClientConfig
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   HandlerConfig
	// ctx outlives individual requests; relays keep running after the
	// upgrade request returns.
	ctx context.Context
}

func NewHandler(ctx context.Context, hub *Hub, config HandlerConfig) *Handler {
	if config.Client.PongWait == 0 {
		config.Client = defaultClientConfig()
	}
	if config.Client.PingPeriod <= 0 || config.Client.PingPeriod >= config.Client.PongWait {
		config.Client.PingPeriod = config.Client.PongWait * 9 / 10
	}
	if config.Client.WriteWait == 0 {
		config.Client.WriteWait = 10 * time.Second
	}
	if config.Client.MaxMessageSize == 0 {
		config.Client.MaxMessageSize = 4096
	}

	h := &Handler{hub: hub, config: config, ctx: ctx}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades an authenticated request and attaches the
// connection to the hub.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	userType, _ := c.Get("user_type")
	userTypeStr, _ := userType.(string)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userObjectID, userTypeStr, h.config.Client)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.ctx)
}

func (h *Handler) Hub() *Hub {
	return h.hub
}
