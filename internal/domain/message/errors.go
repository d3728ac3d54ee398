package message

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message body cannot be empty")
	ErrMessageTooLong       = errors.New("message body exceeds 4000 characters")
	ErrSelfMessage          = errors.New("cannot send a message to yourself")
	ErrNotParticipant       = errors.New("caller is not a participant of this conversation")
)
