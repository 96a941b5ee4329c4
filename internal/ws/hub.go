package ws

import (
	"context"
	"encoding/json"
	"sync"
)

// TopicAdminOrders is the room every admin dashboard joins.
const TopicAdminOrders = "admin.orders"

// Event types pushed to dashboards.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
	}
}

// Run is the hub's main loop. Start it with go hub.Run(ctx); it returns
// when ctx is done, closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for topic, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, topic)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Topic] {
				select {
				case client.send <- message:
				default:
					// slow client
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client from its room and closes its send channel. Callers hold mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.topic]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.topic)
	}
}

// Broadcast sends an event to every client subscribed to topic.
func (h *Hub) Broadcast(topic string, event Event) {
	h.broadcast <- &topicEvent{Topic: topic, Event: event}
}

// Subscribers reports how many clients are listening on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}
