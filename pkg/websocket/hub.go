package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenride/pkg/cache"
	"greenride/pkg/logger"
)

const (
	TopicLocationUpdates = "location_updates"
	TopicRideEvents      = "ride_events"

	MessageTypeLocationUpdate = "location_update"
	MessageTypeWelcome        = "welcome"
)

// Message is the envelope carried over the broker and written to sockets.
// Messages with Recipients go only to those users; otherwise they go to
// every connection except SenderID.
type Message struct {
	Type       string          `json:"type"`
	SenderID   string          `json:"sender_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	Recipients []string        `json:"recipients,omitempty"`
	Timestamp  int64           `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Hub relays messages between connected clients through a Broker so that
// every server instance sees every location update.
type Hub struct {
	broker     cache.Broker
	logger     *logger.Logger
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mutex   sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(broker cache.Broker, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		broker:     broker,
		logger:     log.WithField("component", "websocket_hub"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run subscribes to the relay topics and serves clients until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	locations, err := h.broker.Subscribe(ctx, TopicLocationUpdates)
	if err != nil {
		return err
	}
	events, err := h.broker.Subscribe(ctx, TopicRideEvents)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case payload, ok := <-locations:
			if !ok {
				locations = nil
				continue
			}
			h.deliver(payload)

		case payload, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			h.deliver(payload)
		}
	}
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// RelayLocation publishes a location update from client to every other
// connection. Delivery is best effort.
func (h *Hub) RelayLocation(ctx context.Context, client *Client, data json.RawMessage) {
	msg := Message{
		Type:      MessageTypeLocationUpdate,
		SenderID:  client.ID,
		UserID:    client.UserID.Hex(),
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	if err := h.publish(ctx, TopicLocationUpdates, msg); err != nil {
		h.logger.WithError(err).WithField("client_id", client.ID).Warn("Failed to relay location update")
	}
}

// PublishEvent sends a domain event to the listed users' connections.
func (h *Hub) PublishEvent(ctx context.Context, eventType string, recipients []primitive.ObjectID, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	to := make([]string, 0, len(recipients))
	for _, id := range recipients {
		to = append(to, id.Hex())
	}

	return h.publish(ctx, TopicRideEvents, Message{
		Type:       eventType,
		Recipients: to,
		Timestamp:  time.Now().Unix(),
		Data:       raw,
	})
}

func (h *Hub) publish(ctx context.Context, topic string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.broker.Publish(ctx, topic, payload)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = struct{}{}
	h.mutex.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"client_id": client.ID,
		"user_id":   client.UserID.Hex(),
	}).Debug("Client registered")

	welcome, _ := json.Marshal(Message{
		Type:      MessageTypeWelcome,
		UserID:    client.UserID.Hex(),
		Timestamp: time.Now().Unix(),
	})
	h.sendTo(client, welcome)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.WithField("client_id", client.ID).Debug("Client unregistered")
	}
}

func (h *Hub) deliver(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.WithError(err).Warn("Dropping malformed relay message")
		return
	}

	var recipients map[string]struct{}
	if len(msg.Recipients) > 0 {
		recipients = make(map[string]struct{}, len(msg.Recipients))
		for _, r := range msg.Recipients {
			recipients[r] = struct{}{}
		}
	}

	sender := msg.SenderID
	msg.SenderID = ""
	msg.Recipients = nil
	out, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if sender != "" && client.ID == sender {
			continue
		}
		if recipients != nil {
			if _, ok := recipients[client.UserID.Hex()]; !ok {
				continue
			}
		}
		select {
		case client.send <- out:
		default:
			// Client is not keeping up.
			h.removeLocked(client)
		}
	}
}

func (h *Hub) sendTo(client *Client, payload []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	select {
	case client.send <- payload:
	default:
		h.removeLocked(client)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}
