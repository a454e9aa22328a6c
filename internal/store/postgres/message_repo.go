package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"elearning_go/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.MessageRecord) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (content, conversation_id, sender_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, m.Content, m.ConversationID, m.SenderID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64, limit int) ([]*domain.MessageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content, conversation_id, sender_id, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.MessageRecord
	for rows.Next() {
		m := &domain.MessageRecord{}
		if err := rows.Scan(&m.ID, &m.Content, &m.ConversationID, &m.SenderID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(res)
	return res, nil
}

func (r *MessageRepo) LastForConversation(ctx context.Context, conversationID int64) (*domain.MessageRecord, error) {
	m := &domain.MessageRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, content, conversation_id, sender_id, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, conversationID).Scan(&m.ID, &m.Content, &m.ConversationID, &m.SenderID, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last message: %w", err)
	}
	return m, nil
}

// PruneOld keeps only the newest keepLimit messages of a conversation.
func (r *MessageRepo) PruneOld(ctx context.Context, conversationID int64, keepLimit int) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE conversation_id = $1
		  AND id NOT IN (
			SELECT id FROM messages
			WHERE conversation_id = $1
			ORDER BY id DESC
			LIMIT $2
		  )
	`, conversationID, keepLimit); err != nil {
		return fmt.Errorf("prune messages: %w", err)
	}
	return nil
}
