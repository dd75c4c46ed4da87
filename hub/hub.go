// Package hub tracks live connections and their room membership, and carries
// all outbound fan-out. Inbound traffic is funneled through a single dispatch
// loop so that, within a room, events are applied and broadcast in the exact
// order they arrived.
package hub

import (
	"log/slog"
	"sync"

	"github.com/Prannn182/CodeCollab/domain"
)

type Hub struct {
	mu sync.RWMutex
	// All live connections, joined or not.
	conns map[string]domain.Connection
	// Room membership: roomID -> connID -> connection.
	groups map[string]map[string]domain.Connection
	// connID -> roomID for connections that joined a group.
	membership map[string]string

	tasks chan func()
	stop  chan struct{}
	once  sync.Once
}

func New() *Hub {
	return &Hub{
		conns:      make(map[string]domain.Connection),
		groups:     make(map[string]map[string]domain.Connection),
		membership: make(map[string]string),
		tasks:      make(chan func(), 256),
		stop:       make(chan struct{}),
	}
}

// Run drains the dispatch queue until Stop is called. All protocol handling
// happens on this goroutine.
func (h *Hub) Run() {
	for {
		select {
		case fn := <-h.tasks:
			fn()
		case <-h.stop:
			return
		}
	}
}

func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// Dispatch queues fn onto the hub loop. Dropped if the hub has stopped.
func (h *Hub) Dispatch(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.stop:
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	count := len(h.conns)
	h.mu.Unlock()

	slog.Info("client connected", "clientId", conn.ID(), "connections", count)
}

// Unregister drops the connection and any group membership it held.
func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.Lock()
	delete(h.conns, conn.ID())
	if roomID, ok := h.membership[conn.ID()]; ok {
		h.removeFromGroup(conn.ID(), roomID)
	}
	count := len(h.conns)
	h.mu.Unlock()

	slog.Info("client disconnected", "clientId", conn.ID(), "connections", count)
}

func (h *Hub) JoinGroup(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	if prev, ok := h.membership[connID]; ok {
		h.removeFromGroup(connID, prev)
	}
	group, ok := h.groups[roomID]
	if !ok {
		group = make(map[string]domain.Connection)
		h.groups[roomID] = group
	}
	group[connID] = conn
	h.membership[connID] = roomID
}

func (h *Hub) LeaveGroup(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromGroup(connID, roomID)
}

// caller holds h.mu
func (h *Hub) removeFromGroup(connID, roomID string) {
	if group, ok := h.groups[roomID]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, roomID)
		}
	}
	if h.membership[connID] == roomID {
		delete(h.membership, connID)
	}
}

func (h *Hub) SendTo(connID, event string, payload any) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()

	if !ok {
		return
	}
	if err := conn.Send(event, payload); err != nil {
		slog.Warn("send failed", "clientId", connID, "event", event, "error", err)
	}
}

// BroadcastToRoom fans an event out to every connection in the room, skipping
// excludeID when non-empty. Slow consumers are logged, never waited on.
func (h *Hub) BroadcastToRoom(roomID, event string, payload any, excludeID string) {
	h.mu.RLock()
	group := h.groups[roomID]
	targets := make([]domain.Connection, 0, len(group))
	for id, conn := range group {
		if id == excludeID {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.Send(event, payload); err != nil {
			slog.Warn("broadcast send failed", "clientId", conn.ID(), "room", roomID, "event", event, "error", err)
		}
	}
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Stats() (groups, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups), len(h.conns)
}
