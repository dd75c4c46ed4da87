// Package protocol validates inbound events, mutates the session store, and
// decides which connections receive which outbound events.
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Prannn182/CodeCollab/domain"
	"github.com/Prannn182/CodeCollab/store"
)

var validate = validator.New()

type connState int

const (
	stateUnjoined connState = iota
	stateJoined
	stateDisconnected
)

// session is the per-connection state machine:
// UNJOINED -> JOINED(roomID) -> DISCONNECTED.
type session struct {
	state    connState
	roomID   string
	username string
}

// Handler owns one session per connection. All methods are invoked from the
// hub's dispatch loop, so store mutations and broadcasts for a room happen in
// arrival order; the sessions map needs no lock of its own.
type Handler struct {
	store       *store.Store
	presence    domain.Presence
	executor    domain.Executor
	execTimeout time.Duration
	sessions    map[string]*session
}

func NewHandler(st *store.Store, presence domain.Presence, executor domain.Executor, execTimeout time.Duration) *Handler {
	return &Handler{
		store:       st,
		presence:    presence,
		executor:    executor,
		execTimeout: execTimeout,
		sessions:    make(map[string]*session),
	}
}

func (h *Handler) HandleConnect(conn domain.Connection) {
	h.sessions[conn.ID()] = &session{state: stateUnjoined}
	h.presence.SendTo(conn.ID(), EventTest, testEvent{Message: "Hello from server!"})
}

func (h *Handler) HandleMessage(conn domain.Connection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panic", "clientId", conn.ID(), "panic", r)
			h.sendError(conn, "Internal server error")
		}
	}()

	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		h.handleJoin(conn, env.Data)
	case EventCodeChange:
		h.handleCodeChange(conn, env.Data)
	case EventCursorUpdate:
		h.handleCursorUpdate(conn, env.Data)
	case EventTypingStart:
		h.handleTyping(conn, true)
	case EventTypingStop:
		h.handleTyping(conn, false)
	case EventChatMessage:
		h.handleChatMessage(conn, env.Data)
	case EventLanguageChange:
		h.handleLanguageChange(conn, env.Data)
	case EventRunCode:
		h.handleRunCode(conn, env.Data)
	case EventGetRoomInfo:
		h.handleRoomInfo(conn)
	default:
		slog.Debug("unknown event", "clientId", conn.ID(), "event", env.Event)
	}
}

// HandleDisconnect is terminal and idempotent: a second signal for the same
// connection is a no-op.
func (h *Handler) HandleDisconnect(conn domain.Connection) {
	sess, ok := h.sessions[conn.ID()]
	if !ok {
		return
	}
	if sess.state == stateJoined {
		h.leaveRoom(conn, sess)
	}
	sess.state = stateDisconnected
	delete(h.sessions, conn.ID())
}

func (h *Handler) handleJoin(conn domain.Connection, data []byte) {
	var req joinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(conn, "Room ID and username are required")
		return
	}

	req.RoomID = strings.ToLower(strings.TrimSpace(req.RoomID))
	req.Username = strings.TrimSpace(req.Username)
	req.Language = strings.TrimSpace(req.Language)

	if err := validate.Struct(req); err != nil {
		h.sendError(conn, joinValidationMessage(err))
		return
	}

	sess, ok := h.sessions[conn.ID()]
	if !ok {
		sess = &session{state: stateUnjoined}
		h.sessions[conn.ID()] = sess
	}
	// A joined connection asking for another room leaves its current room
	// first, then joins normally.
	if sess.state == stateJoined {
		h.leaveRoom(conn, sess)
	}

	language := req.Language
	if !domain.IsSupportedLanguage(language) {
		language = domain.DefaultLanguage
	}

	if !h.store.Exists(req.RoomID) {
		if _, err := h.store.Create(req.RoomID, language); err != nil {
			slog.Error("room create failed", "room", req.RoomID, "error", err)
			h.sendError(conn, "Failed to join room")
			return
		}
	}
	if !h.store.AddUser(req.RoomID, conn.ID(), req.Username) {
		h.sendError(conn, "Failed to join room")
		return
	}
	h.presence.JoinGroup(conn.ID(), req.RoomID)

	sess.state = stateJoined
	sess.roomID = req.RoomID
	sess.username = req.Username

	snap, ok := h.store.Snapshot(req.RoomID)
	if !ok {
		h.sendError(conn, "Failed to join room")
		return
	}
	h.presence.SendTo(conn.ID(), EventRoomJoined, snap)
	h.presence.BroadcastToRoom(req.RoomID, EventUserJoined, userJoinedEvent{
		User:      userRef{ID: conn.ID(), Username: req.Username},
		UserCount: len(snap.Users),
	}, conn.ID())

	slog.Info("user joined room", "room", req.RoomID, "clientId", conn.ID(), "username", req.Username)
}

func (h *Handler) handleCodeChange(conn domain.Connection, data []byte) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	var req codeChangeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	if h.store.SetCode(sess.roomID, req.Code) {
		h.presence.BroadcastToRoom(sess.roomID, EventCodeUpdated, codeUpdatedEvent{Code: req.Code}, conn.ID())
	}
}

func (h *Handler) handleCursorUpdate(conn domain.Connection, data []byte) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	var req cursorUpdateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	if h.store.SetCursor(sess.roomID, conn.ID(), req.Cursor) {
		h.presence.BroadcastToRoom(sess.roomID, EventCursorUpdated, cursorUpdatedEvent{
			UserID:   conn.ID(),
			Username: sess.username,
			Cursor:   req.Cursor,
		}, conn.ID())
	}
}

func (h *Handler) handleTyping(conn domain.Connection, isTyping bool) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	if h.store.SetTyping(sess.roomID, conn.ID(), isTyping) {
		h.presence.BroadcastToRoom(sess.roomID, EventUserTyping, userTypingEvent{
			UserID:   conn.ID(),
			Username: sess.username,
			IsTyping: isTyping,
		}, conn.ID())
	}
}

func (h *Handler) handleChatMessage(conn domain.Connection, data []byte) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	var req chatMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		h.sendError(conn, "Message must be between 1 and 500 characters")
		return
	}

	msg, ok := h.store.AppendMessage(sess.roomID, conn.ID(), sess.username, req.Message)
	if !ok {
		return
	}
	// The sender sees its own message through the broadcast, so everyone in
	// the room observes the same order.
	h.presence.BroadcastToRoom(sess.roomID, EventChatMessage, msg, "")
}

func (h *Handler) handleLanguageChange(conn domain.Connection, data []byte) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	var req languageChangeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	if err := h.store.SetLanguage(sess.roomID, req.Language); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.sendError(conn, "Unsupported language")
		}
		return
	}
	h.presence.BroadcastToRoom(sess.roomID, EventLanguageUpdated, languageUpdatedEvent{
		Language: req.Language,
		Code:     domain.Template(req.Language),
	}, "")
}

func (h *Handler) handleRunCode(conn domain.Connection, data []byte) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	var req runCodeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	if !domain.CanExecute(req.Language) {
		h.presence.SendTo(conn.ID(), EventCodeOutput, codeOutputEvent{
			Error: "Language not supported for execution.",
		})
		return
	}

	// Detached so a long run never stalls event processing. The result is
	// broadcast whenever it lands.
	userID, username, roomID := conn.ID(), sess.username, sess.roomID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.execTimeout)
		defer cancel()

		output, err := h.executor.Execute(ctx, req.Code, req.Language)
		var errText string
		if err != nil {
			errText = err.Error()
		}
		h.presence.BroadcastToRoom(roomID, EventCodeOutput, codeOutputEvent{
			UserID:   userID,
			Username: username,
			Output:   output,
			Error:    errText,
			Language: req.Language,
		}, "")
	}()
}

func (h *Handler) handleRoomInfo(conn domain.Connection) {
	sess := h.joined(conn)
	if sess == nil {
		return
	}
	if stats, ok := h.store.Stats(sess.roomID); ok {
		h.presence.SendTo(conn.ID(), EventRoomInfo, stats)
	}
}

// joined returns the session when the connection is in the JOINED state,
// nil otherwise. Events from unjoined connections are silently dropped.
func (h *Handler) joined(conn domain.Connection) *session {
	sess, ok := h.sessions[conn.ID()]
	if !ok || sess.state != stateJoined {
		return nil
	}
	return sess
}

func (h *Handler) leaveRoom(conn domain.Connection, sess *session) {
	h.store.RemoveUser(sess.roomID, conn.ID())
	h.presence.LeaveGroup(conn.ID(), sess.roomID)
	h.presence.BroadcastToRoom(sess.roomID, EventUserLeft, userLeftEvent{
		UserID:   conn.ID(),
		Username: sess.username,
	}, conn.ID())

	slog.Info("user left room", "room", sess.roomID, "clientId", conn.ID(), "username", sess.username)

	sess.state = stateUnjoined
	sess.roomID = ""
	sess.username = ""
}

func (h *Handler) sendError(conn domain.Connection, message string) {
	h.presence.SendTo(conn.ID(), EventError, errorEvent{Message: message})
}

func joinValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "Username" && fe.Tag() != "required" {
				return "Username must be between 2 and 20 characters"
			}
		}
	}
	return "Room ID and username are required"
}
