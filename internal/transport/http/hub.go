package http

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/domain"
)

const sendBuffer = 32

// Hub maps connections to their outbound queues and groups them into rooms, one per lobby.
// It implements app.Dispatcher. Deliveries never block: when a connection's queue is full
// the oldest queued frame is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
	rooms   map[string]map[string]struct{}
	member  map[string]map[string]struct{}
	onDrop  func()
}

// HubOption customizes a Hub.
type HubOption func(*Hub)

// WithDropHook is called every time a frame is dropped for a slow connection.
func WithDropHook(fn func()) HubOption {
	return func(h *Hub) { h.onDrop = fn }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[string]chan []byte),
		rooms:   make(map[string]map[string]struct{}),
		member:  make(map[string]map[string]struct{}),
		onDrop:  func() {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register creates the outbound queue for connID. The queue is closed by Unregister.
func (h *Hub) Register(connID string) <-chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan []byte, sendBuffer)
	h.clients[connID] = ch
	h.member[connID] = make(map[string]struct{})
	return ch
}

// Unregister removes connID from every room and closes its queue.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.clients[connID]
	if !ok {
		return
	}
	for room := range h.member[connID] {
		delete(h.rooms[room], connID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.member, connID)
	delete(h.clients, connID)
	close(ch)
}

func (h *Hub) Subscribe(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][connID] = struct{}{}
	h.member[connID][room] = struct{}{}
}

func (h *Hub) CloseRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.rooms[room] {
		delete(h.member[connID], room)
	}
	delete(h.rooms, room)
}

func (h *Hub) Publish(room string, event domain.Event) {
	frame, ok := encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[room] {
		h.deliver(h.clients[connID], frame)
	}
}

func (h *Hub) Send(connID string, event domain.Event) {
	frame, ok := encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ch, ok := h.clients[connID]; ok {
		h.deliver(ch, frame)
	}
}

// Stats reports the number of registered connections and open rooms.
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.rooms)
}

// deliver must be called with at least the read lock held so the queue cannot be closed underneath it.
func (h *Hub) deliver(ch chan []byte, frame []byte) {
	select {
	case ch <- frame:
		return
	default:
	}
	select {
	case <-ch:
		h.onDrop()
	default:
	}
	select {
	case ch <- frame:
	default:
		h.onDrop()
	}
}

func encode(event domain.Event) ([]byte, bool) {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return nil, false
	}
	return frame, true
}
