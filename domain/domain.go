package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Room is a named collaborative session: one shared code buffer, a chat
// history capped at MaxRoomMessages, and the set of present participants.
// Rooms are owned exclusively by the session store.
type Room struct {
	ID           string
	Code         string
	Language     string
	Users        map[string]*Participant
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// MaxRoomMessages is the chat history cap per room; the oldest message is
// evicted when the cap is exceeded.
const MaxRoomMessages = 100

// Participant is a user's presence within one room, keyed by connection id.
type Participant struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Cursor   json.RawMessage `json:"cursor,omitempty"`
	IsTyping bool            `json:"isTyping"`
	JoinedAt int64           `json:"joinedAt"`
}

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// RoomSnapshot is the full room state sent to a joining connection.
type RoomSnapshot struct {
	RoomID   string        `json:"roomId"`
	Code     string        `json:"code"`
	Language string        `json:"language"`
	Users    []Participant `json:"users"`
	Messages []ChatMessage `json:"messages"`
}

// RoomStats is the statistics view of a room, exposed on the health
// endpoint and the room-info event. Timestamps are unix milliseconds.
type RoomStats struct {
	ID           string `json:"id"`
	UserCount    int    `json:"userCount"`
	Language     string `json:"language"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    int64  `json:"createdAt"`
	LastActivity int64  `json:"lastActivity"`
}

// Envelope frames every message on the wire: a named event plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Connection is one transport connection to a client.
type Connection interface {
	ID() string
	Send(event string, payload any) error
	Close() error
}

// Presence maps connections to rooms and carries outbound fan-out.
// excludeID on BroadcastToRoom skips one connection; pass "" to reach all.
type Presence interface {
	SendTo(connID, event string, payload any)
	BroadcastToRoom(roomID, event string, payload any, excludeID string)
	JoinGroup(connID, roomID string)
	LeaveGroup(connID, roomID string)
}

// MessageHandler consumes the lifecycle and inbound traffic of a connection.
type MessageHandler interface {
	HandleConnect(conn Connection)
	HandleMessage(conn Connection, data []byte)
	HandleDisconnect(conn Connection)
}

// Executor runs a piece of code out of process and returns its output.
// A non-nil error is an *ExecutionError describing the failure.
type Executor interface {
	Execute(ctx context.Context, code, language string) (output string, err error)
}
