package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "conversations.json"))
	require.NoError(t, err)
	return s
}

func TestGetStateCreatesLazily(t *testing.T) {
	s := newTestStore(t)

	conv, err := s.GetState("c1", "")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ConversationId)
	assert.Equal(t, DefaultTitle, conv.Title)
	assert.Empty(t, conv.Messages)

	// a second call returns the same conversation, not a second copy
	again, err := s.GetState("c1", "something else")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, again.Title)
	assert.Len(t, s.ListSessions(), 1)
}

func TestGetStateReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetState("c1", "First Aid")
	require.NoError(t, err)
	_, err = s.AddMessage("c1", "user", "hello")
	require.NoError(t, err)

	conv, err := s.GetState("c1", "")
	require.NoError(t, err)
	conv.Messages[0].Content = "tampered"
	conv.Title = "tampered"

	fresh, err := s.GetState("c1", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", fresh.Messages[0].Content)
	assert.Equal(t, "First Aid", fresh.Title)
}

func TestAddMessageRequiresExistingConversation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddMessage("ghost", "user", "anyone there?")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Empty(t, s.ListSessions())
}

func TestAddMessageMintsIdAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetState("c1", "")
	require.NoError(t, err)

	msg, err := s.AddMessage("c1", "assistant", "apply pressure to the wound")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.MessageId)
	_, perr := time.Parse(time.RFC3339, msg.Timestamp)
	assert.NoError(t, perr)
}

func TestUpdateStateNormalizesLegacyMessages(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateState("c1", Conversation{
		Title: "Imported",
		Messages: []Message{
			{Role: "user", Content: "no id or timestamp"},
			{Role: "assistant", Content: "kept", MessageId: "m-1", Timestamp: "2024-01-01T00:00:00Z"},
		},
	})
	require.NoError(t, err)

	msgs, err := s.GetMessages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.NotEmpty(t, msgs[0].MessageId)
	assert.NotEmpty(t, msgs[0].Timestamp)
	assert.Equal(t, "m-1", msgs[1].MessageId)
	assert.Equal(t, "2024-01-01T00:00:00Z", msgs[1].Timestamp)
}

func TestClearMessagesKeepsTitle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetState("c1", "Burns")
	require.NoError(t, err)
	_, err = s.AddMessage("c1", "user", "hi")
	require.NoError(t, err)

	cleared, err := s.ClearMessages("c1")
	require.NoError(t, err)
	assert.True(t, cleared)

	conv, err := s.GetState("c1", "")
	require.NoError(t, err)
	assert.Equal(t, "Burns", conv.Title)
	assert.Empty(t, conv.Messages)

	cleared, err = s.ClearMessages("ghost")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestDeleteConversation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetState("c1", "")
	require.NoError(t, err)

	deleted, err := s.DeleteConversation("c1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteConversation("c1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.GetMessages("c1")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestWritesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.GetState("c1", "Durable")
	require.NoError(t, err)
	_, err = s.AddMessage("c1", "user", "still here?")
	require.NoError(t, err)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	msgs, err := reopened.GetMessages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "still here?", msgs[0].Content)
}

func TestGetMessagesSeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	a, err := NewStore(path)
	require.NoError(t, err)
	b, err := NewStore(path)
	require.NoError(t, err)

	_, err = a.GetState("c1", "")
	require.NoError(t, err)
	_, err = a.AddMessage("c1", "user", "written by a")
	require.NoError(t, err)

	msgs, err := b.GetMessages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "written by a", msgs[0].Content)
}

func TestFindByTitle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetState("c1", "Default")
	require.NoError(t, err)

	id, ok := s.FindByTitle("Default")
	assert.True(t, ok)
	assert.Equal(t, "c1", id)

	_, ok = s.FindByTitle("Missing")
	assert.False(t, ok)
}

func TestNewStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path)
	assert.Error(t, err)
}
