package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/converse/internal/domain"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		conv.ID, conv.OwnerID, conv.Title, conv.CreatedAt, conv.UpdatedAt,
	)
	return err
}

func (r *ConversationRepo) Get(ctx context.Context, id, ownerID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2`

	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	msgQuery := `
		SELECT id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, msgQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conv.Messages = []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *ConversationRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]domain.ConversationSummary, error) {
	query := `
		SELECT c.id, c.title,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
			c.created_at, c.updated_at
		FROM conversations c
		WHERE c.user_id = $1
		ORDER BY c.updated_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.ConversationSummary{}
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.MessageCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (r *ConversationRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversations WHERE user_id = $1`, ownerID).Scan(&count)
	return count, err
}

// AppendMessage bumps updated_at and inserts the message in one statement,
// so a failed ownership match appends nothing and touches nothing.
func (r *ConversationRepo) AppendMessage(ctx context.Context, id, ownerID uuid.UUID, msg *domain.Message) (bool, error) {
	query := `
		WITH conv AS (
			UPDATE conversations
			SET updated_at = $6
			WHERE id = $1 AND user_id = $2
			RETURNING id
		)
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		SELECT $3, conv.id, $4, $5, $6 FROM conv`

	tag, err := r.pool.Exec(ctx, query, id, ownerID, msg.ID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ConversationRepo) Rename(ctx context.Context, id, ownerID uuid.UUID, title string) (bool, error) {
	query := `
		UPDATE conversations
		SET title = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, ownerID, title)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ConversationRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	// Messages go with it via ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
