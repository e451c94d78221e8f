package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/metrics"
)

const (
	EventAssignmentsGenerated = "assignments_generated"
	EventWorkPortionCreated   = "work_portion_created"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AssignmentsGeneratedEvent struct {
	RunID       string `json:"run_id"`
	CycleDate   string `json:"cycle_date"`
	Assignments int    `json:"assignments"`
}

type WorkPortionCreatedEvent struct {
	WorkPortionID int64  `json:"work_portion_id"`
	Name          string `json:"name"`
	Weight        int    `json:"weight"`
	CreatedBy     int64  `json:"created_by"`
}

type Client struct {
	ID     string
	UserID int64
	Send   chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run dispatches registrations and broadcasts until ctx is done, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			metrics.SSEClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			metrics.SSEClients.Set(float64(len(h.clients)))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			metrics.SSEClients.Set(float64(len(h.clients)))
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- data:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues event for every connected client. It never blocks; the event
// is dropped when the queue is full.
func (h *Hub) Publish(event Event) bool {
	select {
	case h.broadcast <- event:
		return true
	default:
		return false
	}
}

func (h *Hub) BroadcastAssignmentsGenerated(runID string, cycleDate time.Time, count int) {
	h.Publish(Event{
		Type: EventAssignmentsGenerated,
		Data: AssignmentsGeneratedEvent{
			RunID:       runID,
			CycleDate:   cycleDate.UTC().Format("2006-01-02"),
			Assignments: count,
		},
	})
}

func (h *Hub) BroadcastWorkPortionCreated(id int64, name string, weight int, createdBy int64) {
	h.Publish(Event{
		Type: EventWorkPortionCreated,
		Data: WorkPortionCreatedEvent{
			WorkPortionID: id,
			Name:          name,
			Weight:        weight,
			CreatedBy:     createdBy,
		},
	})
}
