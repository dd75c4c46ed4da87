package protocol

import "encoding/json"

// Inbound event names. The set is closed; anything else is ignored.
const (
	EventJoinRoom       = "join-room"
	EventCodeChange     = "code-change"
	EventCursorUpdate   = "cursor-update"
	EventTypingStart    = "typing-start"
	EventTypingStop     = "typing-stop"
	EventChatMessage    = "chat-message"
	EventLanguageChange = "language-change"
	EventRunCode        = "run-code"
	EventGetRoomInfo    = "get-room-info"
)

// Outbound event names.
const (
	EventTest            = "test-event"
	EventRoomJoined      = "room-joined"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventCodeUpdated     = "code-updated"
	EventCursorUpdated   = "cursor-updated"
	EventUserTyping      = "user-typing"
	EventLanguageUpdated = "language-updated"
	EventCodeOutput      = "code-output"
	EventRoomInfo        = "room-info"
	EventError           = "error"
)

type joinRoomRequest struct {
	RoomID   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required,min=2,max=20"`
	Language string `json:"language"`
}

type codeChangeRequest struct {
	Code string `json:"code"`
}

type cursorUpdateRequest struct {
	Cursor json.RawMessage `json:"cursor"`
}

type chatMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=500"`
}

type languageChangeRequest struct {
	Language string `json:"language"`
}

type runCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type userRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type userJoinedEvent struct {
	User      userRef `json:"user"`
	UserCount int     `json:"userCount"`
}

type userLeftEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type codeUpdatedEvent struct {
	Code string `json:"code"`
}

type cursorUpdatedEvent struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Cursor   json.RawMessage `json:"cursor"`
}

type userTypingEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type languageUpdatedEvent struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type codeOutputEvent struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Output   string `json:"output"`
	Error    string `json:"error"`
	Language string `json:"language,omitempty"`
}

type errorEvent struct {
	Message string `json:"message"`
}

type testEvent struct {
	Message string `json:"message"`
}
