package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rafiq-chat/backend/internal/model/chat"
)

func TestStoreAppendKeepsOrder(t *testing.T) {
	s := NewStore()
	s.Append(chat.UserTurn("one"))
	s.Append(chat.AssistantTurn("two"))
	s.Append(chat.UserTurn("three"))

	turns := s.All()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"one", "two", "three"}, []string{turns[0].Text, turns[1].Text, turns[2].Text})
}

func TestStoreAllIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Append(chat.UserTurn("hello"))

	assert.Equal(t, s.All(), s.All())
}

func TestStoreSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	s.Append(chat.UserTurn("hello"))

	snapshot := s.All()
	snapshot[0].Text = "mutated"
	_ = append(snapshot, chat.AssistantTurn("extra"))

	assert.Equal(t, "hello", s.All()[0].Text)
	assert.Equal(t, 1, s.Len())
}
