package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains council_id -> set of connections and broadcasts leaderboard
// updates. Uses Redis pub/sub for horizontal scaling: local broadcast +
// publish to Redis.
type Hub struct {
	// councilID -> map[clientID]*Client
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per council
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishCouncilEvent(councilID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to council channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeCouncil(councilID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a council room. Starts Redis subscription for the
// council if this is its first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.CouncilID] == nil {
		h.rooms[c.CouncilID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeCouncil(c.CouncilID, func(event string, payload []byte) {
				h.BroadcastToCouncil(c.CouncilID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.CouncilID] = cancel
			}
		}
	}
	h.rooms[c.CouncilID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined leaderboard", zap.String("client_id", c.ID), zap.String("council_id", c.CouncilID.String()))
}

// Unregister removes a client from a council room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.CouncilID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.CouncilID)
			if cancel, ok := h.subs[c.CouncilID]; ok {
				cancel()
				delete(h.subs, c.CouncilID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left leaderboard", zap.String("client_id", c.ID), zap.String("council_id", c.CouncilID.String()))
}

// BroadcastToCouncil sends a message to all clients in a council room (local only).
func (h *Hub) BroadcastToCouncil(councilID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[councilID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToCouncilAndPublish sends to local clients and publishes to Redis
// for other instances.
func (h *Hub) BroadcastToCouncilAndPublish(councilID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.BroadcastToCouncil(councilID, event, payload)
	if h.redis != nil {
		_ = h.redis.PublishCouncilEvent(councilID, event, data)
	}
}

// ActiveCouncils returns the councils with at least one connected client.
func (h *Hub) ActiveCouncils() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(h.rooms))
	for id := range h.rooms {
		out = append(out, id)
	}
	return out
}

// AudienceCount returns the number of connected clients in a council room.
func (h *Hub) AudienceCount(councilID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[councilID])
}
