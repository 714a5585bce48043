package domain

import (
	"strings"
	"time"
)

type Message struct {
	ID             string // ulid, sorts by send time
	ConversationID string
	SenderID       string
	RecipientID    string
	Body           string
	SentAt         time.Time
	Read           bool
}

// ConversationSummary is one row of a user's inbox: the peer plus the
// latest message exchanged with them.
type ConversationSummary struct {
	ConversationID string
	PeerID         string
	LastMessage    Message
	UnreadCount    int
}

// ConversationID derives the shared id for a pair of users. Both sides
// must compute the same id regardless of who sends first.
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// PeerOf returns the other participant of a conversation id, or "" if
// userID is not a participant.
func PeerOf(conversationID, userID string) string {
	a, b, ok := strings.Cut(conversationID, ":")
	if !ok {
		return ""
	}
	switch userID {
	case a:
		return b
	case b:
		return a
	}
	return ""
}
