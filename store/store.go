// Package store holds all room state in memory and is the single authority
// over its mutation. Every method is atomic with respect to every other, so
// a concurrent sweep can never observe a half-applied join.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Prannn182/CodeCollab/domain"
)

type Store struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	now   func() time.Time
}

func New() *Store {
	return &Store{
		rooms: make(map[string]*domain.Room),
		now:   time.Now,
	}
}

// Create registers a new room with the given language's starter code.
// It fails if the id is already taken; callers check Exists first.
func (s *Store) Create(id, language string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; ok {
		return nil, domain.Validationf("room already exists: %s", id)
	}

	now := s.now()
	room := &domain.Room{
		ID:           id,
		Code:         domain.Template(language),
		Language:     language,
		Users:        make(map[string]*domain.Participant),
		Messages:     make([]domain.ChatMessage, 0, domain.MaxRoomMessages),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.rooms[id] = room
	return room, nil
}

func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *Store) AddUser(roomID, userID, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	room.Users[userID] = &domain.Participant{
		ID:       userID,
		Username: username,
		JoinedAt: s.now().UnixMilli(),
	}
	room.LastActivity = s.now()
	return true
}

func (s *Store) RemoveUser(roomID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	delete(room.Users, userID)
	room.LastActivity = s.now()
	return true
}

// SetCode overwrites the shared buffer. Last write wins; content is not
// inspected.
func (s *Store) SetCode(roomID, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	room.Code = code
	room.LastActivity = s.now()
	return true
}

// SetLanguage switches the room language and resets the buffer to that
// language's starter code.
func (s *Store) SetLanguage(roomID, language string) error {
	if !domain.IsSupportedLanguage(language) {
		return domain.Validationf("unsupported language: %s", language)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return &domain.NotFoundError{Resource: "room", ID: roomID}
	}
	room.Language = language
	room.Code = domain.Template(language)
	room.LastActivity = s.now()
	return nil
}

// AppendMessage appends a chat message, evicting the oldest entry once the
// history exceeds the cap.
func (s *Store) AppendMessage(roomID, userID, username, message string) (domain.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.ChatMessage{}, false
	}

	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		Message:   message,
		Timestamp: s.now().UnixMilli(),
	}
	room.Messages = append(room.Messages, msg)
	if len(room.Messages) > domain.MaxRoomMessages {
		copy(room.Messages, room.Messages[1:])
		room.Messages = room.Messages[:domain.MaxRoomMessages]
	}
	room.LastActivity = s.now()
	return msg, true
}

func (s *Store) SetCursor(roomID, userID string, cursor json.RawMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	user, ok := room.Users[userID]
	if !ok {
		return false
	}
	user.Cursor = cursor
	room.LastActivity = s.now()
	return true
}

func (s *Store) SetTyping(roomID, userID string, isTyping bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	user, ok := room.Users[userID]
	if !ok {
		return false
	}
	user.IsTyping = isTyping
	room.LastActivity = s.now()
	return true
}

// Snapshot returns a copy of the full room state for a joining connection.
func (s *Store) Snapshot(roomID string) (domain.RoomSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.RoomSnapshot{}, false
	}
	return domain.RoomSnapshot{
		RoomID:   room.ID,
		Code:     room.Code,
		Language: room.Language,
		Users: lo.MapToSlice(room.Users, func(_ string, u *domain.Participant) domain.Participant {
			return *u
		}),
		Messages: append(make([]domain.ChatMessage, 0, len(room.Messages)), room.Messages...),
	}, true
}

func (s *Store) Stats(roomID string) (domain.RoomStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.RoomStats{}, false
	}
	return roomStats(room), true
}

func (s *Store) AllStats() []domain.RoomStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.MapToSlice(s.rooms, func(_ string, room *domain.Room) domain.RoomStats {
		return roomStats(room)
	})
}

// Reap deletes rooms that are empty and have been inactive longer than the
// threshold, returning the ids removed. Deletion happens under the same lock
// as AddUser, so a room with a participant can never be reaped.
func (s *Store) Reap(threshold time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var reaped []string
	for id, room := range s.rooms {
		if len(room.Users) == 0 && now.Sub(room.LastActivity) > threshold {
			delete(s.rooms, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}

func roomStats(room *domain.Room) domain.RoomStats {
	return domain.RoomStats{
		ID:           room.ID,
		UserCount:    len(room.Users),
		Language:     room.Language,
		MessageCount: len(room.Messages),
		CreatedAt:    room.CreatedAt.UnixMilli(),
		LastActivity: room.LastActivity.UnixMilli(),
	}
}
