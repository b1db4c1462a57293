package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/converse/internal/domain"
	"github.com/vedran77/converse/internal/repository"
)

// ErrConversationNotFound covers both a conversation that does not exist
// and one owned by another user.
var ErrConversationNotFound = errors.New("conversation not found")

// FallbackReply is what the user sees when the generation backend is down.
// A chat turn always produces an assistant reply.
const FallbackReply = "Sorry, the assistant is temporarily unavailable. Please try again later."

const titleMaxRunes = 20

// Generator produces an assistant reply for an ordered list of turns.
type Generator interface {
	Generate(ctx context.Context, turns []domain.Turn) (string, error)
}

// ConversationCache caches conversation detail reads (optional dependency).
type ConversationCache interface {
	GetDetail(ctx context.Context, ownerID, conversationID uuid.UUID) (*domain.Conversation, bool)
	SetDetail(ctx context.Context, ownerID uuid.UUID, conv *domain.Conversation)
	Invalidate(ctx context.Context, ownerID, conversationID uuid.UUID)
}

type ChatService struct {
	convRepo      repository.ConversationRepository
	generator     Generator
	cache         ConversationCache
	contextWindow int
}

func NewChatService(convRepo repository.ConversationRepository, generator Generator, contextWindow int) *ChatService {
	if contextWindow <= 0 {
		contextWindow = 10
	}
	return &ChatService{
		convRepo:      convRepo,
		generator:     generator,
		contextWindow: contextWindow,
	}
}

// SetCache sets the conversation cache (optional dependency).
func (s *ChatService) SetCache(c ConversationCache) {
	s.cache = c
}

type TurnResult struct {
	Reply          string    `json:"message"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type ConversationListResponse struct {
	Conversations []domain.ConversationSummary `json:"conversations"`
	Total         int                          `json:"total"`
}

// Turn runs one chat exchange: resolve or create the conversation, append
// the user message, generate a reply from the bounded context, append it.
func (s *ChatService) Turn(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, text string) (*TurnResult, error) {
	var convID uuid.UUID
	var history []domain.Turn

	if conversationID == nil {
		conv := &domain.Conversation{
			ID:        uuid.New(),
			OwnerID:   userID,
			Title:     titleFromMessage(text),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.convRepo.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
		convID = conv.ID
	} else {
		conv, err := s.convRepo.Get(ctx, *conversationID, userID)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			return nil, ErrConversationNotFound
		}
		convID = conv.ID
		history = buildContext(conv, s.contextWindow)
	}

	if err := s.append(ctx, convID, userID, domain.RoleUser, text); err != nil {
		return nil, err
	}

	reply := s.generate(ctx, append(history, domain.Turn{Role: domain.RoleUser, Content: text}))

	if err := s.append(ctx, convID, userID, domain.RoleAssistant, reply); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID, convID)

	return &TurnResult{Reply: reply, ConversationID: convID}, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID, skip, limit int) (*ConversationListResponse, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	conversations, err := s.convRepo.ListByOwner(ctx, userID, skip, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.convRepo.CountByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ConversationListResponse{Conversations: conversations, Total: total}, nil
}

func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	if s.cache != nil {
		if conv, ok := s.cache.GetDetail(ctx, userID, conversationID); ok {
			return conv, nil
		}
	}

	conv, err := s.convRepo.Get(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	if s.cache != nil {
		s.cache.SetDetail(ctx, userID, conv)
	}

	return conv, nil
}

func (s *ChatService) RenameConversation(ctx context.Context, userID, conversationID uuid.UUID, title string) error {
	ok, err := s.convRepo.Rename(ctx, conversationID, userID, title)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConversationNotFound
	}

	s.invalidate(ctx, userID, conversationID)
	return nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	ok, err := s.convRepo.Delete(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConversationNotFound
	}

	s.invalidate(ctx, userID, conversationID)
	return nil
}

func (s *ChatService) append(ctx context.Context, convID, userID uuid.UUID, role domain.Role, content string) error {
	msg := &domain.Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	ok, err := s.convRepo.AppendMessage(ctx, convID, userID, msg)
	if err != nil {
		return fmt.Errorf("appending %s message: %w", role, err)
	}
	if !ok {
		return ErrConversationNotFound
	}
	return nil
}

// generate never fails: any backend error degrades to the fallback reply
// so the turn still completes with a consistent user+assistant pair.
func (s *ChatService) generate(ctx context.Context, turns []domain.Turn) string {
	reply, err := s.generator.Generate(ctx, turns)
	if err != nil {
		log.Printf("generation failed, using fallback reply: %v", err)
		return FallbackReply
	}
	if reply == "" {
		return FallbackReply
	}
	return reply
}

func (s *ChatService) invalidate(ctx context.Context, userID, convID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID, convID)
	}
}

// buildContext takes the most recent maxMessages messages in chronological
// order and strips them down to role+content.
func buildContext(conv *domain.Conversation, maxMessages int) []domain.Turn {
	messages := conv.Messages
	if len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}

	turns := make([]domain.Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, domain.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

// titleFromMessage derives a conversation title from the first user
// message: up to 20 characters, ellipsis when truncated.
func titleFromMessage(text string) string {
	runes := []rune(text)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	if len(runes) == 0 {
		return domain.DefaultConversationTitle
	}
	return text
}
