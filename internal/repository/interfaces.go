package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/converse/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByAccount resolves a login identifier: username match wins over
	// email when the same string is registered as both.
	GetByAccount(ctx context.Context, account string) (*domain.User, error)
}

// ConversationRepository is owner-scoped throughout: every lookup and
// mutation matches on (conversation id, owner id), so a conversation
// belonging to another user is indistinguishable from one that does not
// exist. Mutations report "no such conversation for this owner" as a
// false bool, not an error.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Get(ctx context.Context, id, ownerID uuid.UUID) (*domain.Conversation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]domain.ConversationSummary, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	AppendMessage(ctx context.Context, id, ownerID uuid.UUID, msg *domain.Message) (bool, error)
	Rename(ctx context.Context, id, ownerID uuid.UUID, title string) (bool, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}
