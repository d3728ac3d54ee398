package message

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConversationIDIsSymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, ConversationID(a, b), ConversationID(b, a))
	assert.Contains(t, ConversationID(a, b), "_")
}

func TestConversationParticipants(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	conv := &Conversation{ID: ConversationID(a, b), Participants: []uuid.UUID{a, b}}

	assert.True(t, conv.HasParticipant(a))
	assert.False(t, conv.HasParticipant(c))
	assert.Equal(t, b, conv.Counterpart(a))
	assert.Equal(t, a, conv.Counterpart(b))
}
