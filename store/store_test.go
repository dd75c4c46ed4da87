package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prannn182/CodeCollab/domain"
)

func TestStore_Create(t *testing.T) {
	s := New()

	room, err := s.Create("demo", "python")
	require.NoError(t, err)

	assert.Equal(t, "demo", room.ID)
	assert.Equal(t, "python", room.Language)
	assert.Equal(t, domain.Template("python"), room.Code)
	assert.True(t, s.Exists("demo"))
	assert.Equal(t, 1, s.Count())

	_, err = s.Create("demo", "javascript")
	assert.Error(t, err, "duplicate id must be rejected")
}

func TestStore_AddRemoveUser(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)

	assert.False(t, s.AddUser("missing", "u1", "alice"))

	require.True(t, s.AddUser("demo", "u1", "alice"))
	require.True(t, s.AddUser("demo", "u2", "bob"))

	snap, ok := s.Snapshot("demo")
	require.True(t, ok)
	assert.Len(t, snap.Users, 2)

	require.True(t, s.RemoveUser("demo", "u1"))
	snap, _ = s.Snapshot("demo")
	assert.Len(t, snap.Users, 1)
	assert.Equal(t, "bob", snap.Users[0].Username)

	// Removing an absent user is still a successful no-op on the room.
	assert.True(t, s.RemoveUser("demo", "u1"))
	assert.False(t, s.RemoveUser("missing", "u1"))
}

func TestStore_SetCode_LastWriteWins(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)

	require.True(t, s.SetCode("demo", "x = 1"))
	require.True(t, s.SetCode("demo", ""))

	snap, _ := s.Snapshot("demo")
	assert.Equal(t, "", snap.Code, "empty buffer is a valid write")

	assert.False(t, s.SetCode("missing", "x"))
}

func TestStore_SetLanguage_ResetsTemplate(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)
	require.True(t, s.SetCode("demo", "overwritten"))

	for _, lang := range domain.SupportedLanguages() {
		require.NoError(t, s.SetLanguage("demo", lang))

		snap, ok := s.Snapshot("demo")
		require.True(t, ok)
		assert.Equal(t, lang, snap.Language)
		assert.Equal(t, domain.Template(lang), snap.Code)
	}
}

func TestStore_SetLanguage_Errors(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)

	err = s.SetLanguage("demo", "cobol")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	err = s.SetLanguage("missing", "python")
	var nferr *domain.NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestStore_AppendMessage_Cap(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)

	for i := 0; i < domain.MaxRoomMessages+1; i++ {
		_, ok := s.AppendMessage("demo", "u1", "alice", fmt.Sprintf("msg-%d", i))
		require.True(t, ok)
	}

	snap, _ := s.Snapshot("demo")
	require.Len(t, snap.Messages, domain.MaxRoomMessages)
	assert.Equal(t, "msg-1", snap.Messages[0].Message, "oldest message evicted first")
	assert.Equal(t, fmt.Sprintf("msg-%d", domain.MaxRoomMessages), snap.Messages[len(snap.Messages)-1].Message)

	// Buffer holds exactly the last 100 in original order.
	for i, msg := range snap.Messages {
		assert.Equal(t, fmt.Sprintf("msg-%d", i+1), msg.Message)
	}
}

func TestStore_AppendMessage_MissingRoom(t *testing.T) {
	s := New()
	_, ok := s.AppendMessage("missing", "u1", "alice", "hi")
	assert.False(t, ok)
}

func TestStore_CursorAndTyping(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)
	require.True(t, s.AddUser("demo", "u1", "alice"))

	cursor := json.RawMessage(`{"line":3,"col":7}`)
	require.True(t, s.SetCursor("demo", "u1", cursor))
	assert.False(t, s.SetCursor("demo", "ghost", cursor))
	assert.False(t, s.SetCursor("missing", "u1", cursor))

	require.True(t, s.SetTyping("demo", "u1", true))
	// Toggling to the same value twice stays consistent.
	require.True(t, s.SetTyping("demo", "u1", false))
	require.True(t, s.SetTyping("demo", "u1", false))

	snap, _ := s.Snapshot("demo")
	require.Len(t, snap.Users, 1)
	assert.JSONEq(t, string(cursor), string(snap.Users[0].Cursor))
	assert.False(t, snap.Users[0].IsTyping)
}

func TestStore_LastActivityUpdatedOnMutation(t *testing.T) {
	s := New()
	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }

	_, err := s.Create("demo", "javascript")
	require.NoError(t, err)

	current = current.Add(time.Minute)
	require.True(t, s.SetCode("demo", "x"))

	stats, ok := s.Stats("demo")
	require.True(t, ok)
	assert.Equal(t, current.UnixMilli(), stats.LastActivity)
	assert.Equal(t, time.Unix(1000, 0).UnixMilli(), stats.CreatedAt)
}

func TestStore_Stats(t *testing.T) {
	s := New()
	_, err := s.Create("demo", "python")
	require.NoError(t, err)
	require.True(t, s.AddUser("demo", "u1", "alice"))
	_, ok := s.AppendMessage("demo", "u1", "alice", "hi")
	require.True(t, ok)

	stats, ok := s.Stats("demo")
	require.True(t, ok)
	assert.Equal(t, "demo", stats.ID)
	assert.Equal(t, 1, stats.UserCount)
	assert.Equal(t, "python", stats.Language)
	assert.Equal(t, 1, stats.MessageCount)

	_, ok = s.Stats("missing")
	assert.False(t, ok)

	_, err = s.Create("other", "css")
	require.NoError(t, err)
	assert.Len(t, s.AllStats(), 2)
}

func TestStore_Reap(t *testing.T) {
	s := New()
	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }

	_, err := s.Create("stale", "javascript")
	require.NoError(t, err)
	_, err = s.Create("occupied", "javascript")
	require.NoError(t, err)
	require.True(t, s.AddUser("occupied", "u1", "alice"))
	_, err = s.Create("fresh", "javascript")
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	// "fresh" saw activity after the jump, "occupied" is old but populated.
	require.True(t, s.SetCode("fresh", "x"))

	reaped := s.Reap(time.Hour)
	assert.ElementsMatch(t, []string{"stale"}, reaped)
	assert.False(t, s.Exists("stale"))
	assert.True(t, s.Exists("occupied"), "a room with participants is never reaped")
	assert.True(t, s.Exists("fresh"))
}

// A join racing a sweep must never lose the participant: if AddUser reports
// success, the room must still exist afterwards.
func TestStore_ReapNeverDeletesJoinedRoom(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := New()
		past := time.Unix(0, 0)
		s.now = func() time.Time { return past }
		_, err := s.Create("demo", "javascript")
		require.NoError(t, err)
		s.now = time.Now

		var wg sync.WaitGroup
		var joined bool
		wg.Add(2)
		go func() {
			defer wg.Done()
			joined = s.AddUser("demo", "u1", "alice")
		}()
		go func() {
			defer wg.Done()
			s.Reap(0)
		}()
		wg.Wait()

		if joined {
			require.True(t, s.Exists("demo"), "iteration %d: populated room was reaped", i)
			snap, ok := s.Snapshot("demo")
			require.True(t, ok)
			require.Len(t, snap.Users, 1)
		}
	}
}

func TestReaper_SweepAndStop(t *testing.T) {
	s := New()
	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }
	_, err := s.Create("stale", "javascript")
	require.NoError(t, err)
	current = current.Add(time.Hour)

	r := NewReaper(s, 5*time.Millisecond, time.Minute)
	r.Start()
	defer r.Stop()

	require.Eventually(t, func() bool {
		return !s.Exists("stale")
	}, time.Second, 5*time.Millisecond)
}
