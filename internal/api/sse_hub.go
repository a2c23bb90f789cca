package api

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// allTopics subscribes a client to every dataset's runs.
const allTopics = "*"

// SSEClient represents a connected SSE client
type SSEClient struct {
	Topic   string
	Channel chan RunEvent
}

// RunEvent is a run lifecycle notification streamed to clients
type RunEvent struct {
	Topic        string    `json:"topic"` // dataset name
	EventType    string    `json:"event_type"`
	RunID        string    `json:"run_id"`
	Library      string    `json:"library"`
	Question     string    `json:"question"`
	ChartCount   int       `json:"chart_count"`
	SuccessCount int       `json:"success_count"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// SSEHub manages Server-Sent Events for run updates
type SSEHub struct {
	clients    map[string]map[chan RunEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan RunEvent
	done       chan struct{}
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan RunEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan RunEvent, 100),
		done:       make(chan struct{}),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.Topic] == nil {
				h.clients[client.Topic] = make(map[chan RunEvent]bool)
			}
			h.clients[client.Topic][client.Channel] = true
			log.Printf("[SSE] Client registered for %s (total clients: %d)",
				client.Topic, len(h.clients[client.Topic]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.Topic]; exists {
				delete(clients, client.Channel)
				close(client.Channel)
				if len(clients) == 0 {
					delete(h.clients, client.Topic)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			h.deliver(event.Topic, event)
			if event.Topic != allTopics {
				h.deliver(allTopics, event)
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// deliver must be called with clientsMu held
func (h *SSEHub) deliver(topic string, event RunEvent) {
	for clientChan := range h.clients[topic] {
		select {
		case clientChan <- event:
		default:
			log.Printf("[SSE] Client channel full for %s, skipping event", topic)
		}
	}
}

// Broadcast sends an event to all clients listening to its topic
func (h *SSEHub) Broadcast(event RunEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Close stops the hub loop
func (h *SSEHub) Close() {
	close(h.done)
}

// HandleSSE streams run events. ?dataset=name narrows the stream to one dataset.
func (h *SSEHub) HandleSSE(c *gin.Context) {
	topic := c.DefaultQuery("dataset", allTopics)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan RunEvent, 10)

	select {
	case h.register <- SSEClient{Topic: topic, Channel: clientChan}:
	default:
		c.JSON(500, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- SSEClient{Topic: topic, Channel: clientChan}:
		default:
		}
	}()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("run", string(eventJSON))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetClientCount returns the number of active clients for a topic, or for
// every topic when topic is empty
func (h *SSEHub) GetClientCount(topic string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	if topic == "" {
		total := 0
		for _, clients := range h.clients {
			total += len(clients)
		}
		return total
	}
	return len(h.clients[topic])
}
