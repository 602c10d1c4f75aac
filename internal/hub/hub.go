// Package hub fans group membership changes out to live SSE subscribers.
package hub

import (
	"encoding/json"
	"sync"
)

// Event is a realtime message delivered to subscribers of a group.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client receives encoded events. The SSE handler drains it; the hub closes
// it on Unsubscribe.
type Client chan []byte

// Hub tracks subscribers per group id.
type Hub struct {
	groups map[uint]map[Client]struct{}
	mu     sync.RWMutex
}

// GlobalHub is shared by the HTTP handlers.
var GlobalHub = NewHub()

func NewHub() *Hub {
	return &Hub{groups: make(map[uint]map[Client]struct{})}
}

// Subscribe registers a new buffered client for groupID.
func (h *Hub) Subscribe(groupID uint) Client {
	client := make(Client, 16)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groups[groupID]; !ok {
		h.groups[groupID] = make(map[Client]struct{})
	}
	h.groups[groupID][client] = struct{}{}
	return client
}

// Unsubscribe removes the client and closes its channel.
func (h *Hub) Unsubscribe(groupID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.groups[groupID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client)
	if len(clients) == 0 {
		delete(h.groups, groupID)
	}
}

// Subscribers reports how many clients listen on groupID.
func (h *Hub) Subscribers(groupID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}

// Broadcast sends event to every subscriber of groupID. Slow clients whose
// buffer is full miss the event rather than block the caller.
func (h *Hub) Broadcast(groupID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.groups[groupID]
	if !ok {
		return
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return
	}
	for client := range clients {
		select {
		case client <- msg:
		default:
		}
	}
}
