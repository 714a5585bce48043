package mysql

import (
	"context"

	"tablebook/internal/domain"
)

func (r *Repo) InsertMessage(ctx context.Context, m domain.Message) error {
	_, err := r.db.ExecContext(ctx, insertMessageSQL,
		m.ID,
		m.ConversationID,
		m.SenderID,
		m.RecipientID,
		m.Body,
		m.SentAt,
	)
	return mapErr(err)
}

// ListConversation returns the newest limit messages, oldest first. Message
// ids are ULIDs, so lexicographic order is send order.
func (r *Repo) ListConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, listConversationSQL, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Body, &m.SentAt, &m.Read); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// the query selects newest first so old messages fall off, not new ones
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *Repo) ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx, listConversationsSQL, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ConversationSummary
	for rows.Next() {
		var cs domain.ConversationSummary
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Body, &m.SentAt, &m.Read,
			&cs.UnreadCount,
		); err != nil {
			return nil, err
		}
		cs.ConversationID = m.ConversationID
		cs.PeerID = domain.PeerOf(m.ConversationID, userID)
		cs.LastMessage = m
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *Repo) MarkConversationRead(ctx context.Context, conversationID, readerID string) error {
	_, err := r.db.ExecContext(ctx, markConversationReadSQL, conversationID, readerID)
	return err
}
