package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/peifeira/peifeira-api/internal/events"
	"github.com/peifeira/peifeira-api/internal/logging"
)

var log = logging.Component("sse")

// Client is one open notification stream. A student client receives every
// event about itself; team subscriptions add events for those teams.
type Client struct {
	ID        string
	StudentID uuid.UUID
	Teams     map[uuid.UUID]bool
	Send      chan []byte
}

func (c *Client) wants(e events.Event) bool {
	if c.StudentID != uuid.Nil && e.StudentID != nil && *e.StudentID == c.StudentID {
		return true
	}
	return c.Teams[e.TeamID]
}

// Hub fans committed team events out to connected clients. It implements
// events.Publisher so it can sit next to the Kafka publisher.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close is called. On exit
// every client's Send channel is closed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.WithError(err).WithField("type", event.Type).Error("failed to encode event")
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					log.WithField("client_id", client.ID).Warn("client buffer full, dropping event")
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SubscribeToTeam adds a team to an open client owned by studentID. It
// reports false when no such client is connected.
func (h *Hub) SubscribeToTeam(clientID string, studentID, teamID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.StudentID != studentID {
		return false
	}
	client.Teams[teamID] = true
	return true
}

func (h *Hub) UnsubscribeFromTeam(clientID string, studentID, teamID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.StudentID != studentID {
		return false
	}
	delete(client.Teams, teamID)
	return true
}

// Publish queues the event for delivery. It gives up when ctx ends or the
// hub is closed, and never fails the caller's operation.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	select {
	case h.broadcast <- event:
	case <-h.done:
	case <-ctx.Done():
	}
	return nil
}

func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}
