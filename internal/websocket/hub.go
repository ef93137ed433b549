package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"subshare-be/internal/pkg/logger"
	"subshare-be/pkg/events"
	pktNats "subshare-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries events between API instances so an organizer
// connected to any instance sees every event of their account.
const ClusterChannel = "subshare:billing_events"

// Hub keeps the live connections of each account and pushes billing events
// to them. It doubles as a notification sink.
type Hub struct {
	// Registered clients: AccountID -> connections (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis fans events out to the other instances. When nil, events are
	// delivered to local clients only.
	rdb redis.UniversalClient

	logger logger.ILogger
}

type clusterMessage struct {
	AccountID string          `json:"account_id"`
	Message   json.RawMessage `json:"message"`
}

func NewHub(rdb redis.UniversalClient, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		ready := make(chan struct{})
		go h.subscribeToRedis(ctx, ready)
		<-ready
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.AccountID] = append(h.clients[client.AccountID], client)
			h.mu.Unlock()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{"account_id": client.AccountID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.AccountID]
	for i, c := range clients {
		if c == client {
			h.clients[client.AccountID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.AccountID]) == 0 {
		delete(h.clients, client.AccountID)
		h.logger.Info("HUB", "Account has no live connections", map[string]interface{}{"account_id": client.AccountID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Connected reports how many live connections an account has on this instance.
func (h *Hub) Connected(accountID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

// Publish routes an event to the account named in its payload. Events
// without an account are dropped.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	accountID, ok := accountOf(event.Payload())
	if !ok {
		return nil
	}

	data, err := json.Marshal(pktNats.Envelope{
		Id:         uuid.NewString(),
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
	if err != nil {
		return err
	}

	if h.rdb == nil {
		h.deliver(accountID, data)
		return nil
	}

	// Every instance, this one included, delivers from the subscription.
	payload, err := json.Marshal(clusterMessage{AccountID: accountID.String(), Message: data})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, ClusterChannel, payload).Err()
}

// deliver holds the read lock while sending so remove cannot close a
// channel mid-send. Sends never block.
func (h *Hub) deliver(accountID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[accountID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("HUB", "Client send buffer full, dropping connection", map[string]interface{}{"account_id": accountID})
			go h.leave(client)
		}
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context, ready chan<- struct{}) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so no event published after
	// Run starts is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("HUB", "Redis subscription failed", map[string]interface{}{"error": err.Error()})
	}
	close(ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("HUB", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			accountID, err := uuid.Parse(payload.AccountID)
			if err != nil {
				continue
			}
			h.deliver(accountID, payload.Message)
		}
	}
}

func accountOf(data map[string]interface{}) (uuid.UUID, bool) {
	switch v := data["account_id"].(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case *uuid.UUID:
		if v == nil {
			return uuid.Nil, false
		}
		return *v, *v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	case fmt.Stringer:
		id, err := uuid.Parse(v.String())
		return id, err == nil
	}
	return uuid.Nil, false
}
