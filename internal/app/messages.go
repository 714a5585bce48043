package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"tablebook/internal/domain"
)

type MessageService struct {
	msgs  domain.MessageRepository
	users domain.UserRepository
}

func NewMessageService(msgs domain.MessageRepository, users domain.UserRepository) *MessageService {
	return &MessageService{msgs: msgs, users: users}
}

func (s *MessageService) Send(ctx context.Context, senderID, recipientID, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, fmt.Errorf("empty message: %w", domain.ErrConflict)
	}
	if senderID == recipientID {
		return domain.Message{}, fmt.Errorf("cannot message yourself: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetUserByID(ctx, recipientID); err != nil {
		return domain.Message{}, err
	}
	m := domain.Message{
		ID:             ulid.Make().String(),
		ConversationID: domain.ConversationID(senderID, recipientID),
		SenderID:       senderID,
		RecipientID:    recipientID,
		Body:           body,
		SentAt:         time.Now().UTC(),
	}
	if err := s.msgs.InsertMessage(ctx, m); err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

// History returns the messages between userID and peerID, oldest first, and
// marks the peer's messages as read.
func (s *MessageService) History(ctx context.Context, userID, peerID string, limit int) ([]domain.Message, error) {
	cid := domain.ConversationID(userID, peerID)
	ms, err := s.msgs.ListConversation(ctx, cid, limit)
	if err != nil {
		return nil, err
	}
	_ = s.msgs.MarkConversationRead(ctx, cid, userID)
	return ms, nil
}

func (s *MessageService) Inbox(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	return s.msgs.ListConversations(ctx, userID)
}
