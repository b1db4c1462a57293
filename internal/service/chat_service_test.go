package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/converse/internal/domain"
)

// memConvRepo is an in-memory ConversationRepository for service tests.
type memConvRepo struct {
	convs map[uuid.UUID]*domain.Conversation
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{convs: map[uuid.UUID]*domain.Conversation{}}
}

func (m *memConvRepo) Create(_ context.Context, conv *domain.Conversation) error {
	cp := *conv
	cp.Messages = append([]domain.Message{}, conv.Messages...)
	m.convs[cp.ID] = &cp
	return nil
}

func (m *memConvRepo) Get(_ context.Context, id, ownerID uuid.UUID) (*domain.Conversation, error) {
	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return nil, nil
	}
	cp := *conv
	cp.Messages = append([]domain.Message{}, conv.Messages...)
	return &cp, nil
}

func (m *memConvRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, skip, limit int) ([]domain.ConversationSummary, error) {
	var all []*domain.Conversation
	for _, c := range m.convs {
		if c.OwnerID == ownerID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	summaries := []domain.ConversationSummary{}
	for i, c := range all {
		if i < skip {
			continue
		}
		if len(summaries) == limit {
			break
		}
		summaries = append(summaries, domain.ConversationSummary{
			ID:           c.ID,
			Title:        c.Title,
			MessageCount: len(c.Messages),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return summaries, nil
}

func (m *memConvRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	count := 0
	for _, c := range m.convs {
		if c.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (m *memConvRepo) AppendMessage(_ context.Context, id, ownerID uuid.UUID, msg *domain.Message) (bool, error) {
	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return false, nil
	}
	conv.Messages = append(conv.Messages, *msg)
	conv.UpdatedAt = msg.CreatedAt
	return true, nil
}

func (m *memConvRepo) Rename(_ context.Context, id, ownerID uuid.UUID, title string) (bool, error) {
	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return false, nil
	}
	conv.Title = title
	conv.UpdatedAt = time.Now()
	return true, nil
}

func (m *memConvRepo) Delete(_ context.Context, id, ownerID uuid.UUID) (bool, error) {
	conv, ok := m.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return false, nil
	}
	delete(m.convs, id)
	return true, nil
}

// stubGenerator records what it was asked and returns a canned reply or error.
type stubGenerator struct {
	reply string
	err   error
	turns []domain.Turn
}

func (g *stubGenerator) Generate(_ context.Context, turns []domain.Turn) (string, error) {
	g.turns = turns
	return g.reply, g.err
}

func seedConversation(repo *memConvRepo, ownerID uuid.UUID, messageCount int) *domain.Conversation {
	conv := &domain.Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     "seeded",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for i := 0; i < messageCount; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		conv.Messages = append(conv.Messages, domain.Message{
			ID:        uuid.New(),
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}
	repo.convs[conv.ID] = conv
	return conv
}

func TestBuildContext_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		wantLen   int
		wantFirst string
	}{
		{"fewer than window", 4, 4, "message 0"},
		{"exactly window", 10, 10, "message 0"},
		{"more than window", 25, 10, "message 15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemConvRepo()
			conv := seedConversation(repo, uuid.New(), tt.count)

			turns := buildContext(conv, 10)
			require.Len(t, turns, tt.wantLen)
			assert.Equal(t, tt.wantFirst, turns[0].Content)

			// Chronological order preserved, metadata stripped.
			for i := 1; i < len(turns); i++ {
				assert.Less(t, turns[i-1].Content, turns[i].Content)
			}
		})
	}
}

func TestTitleFromMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"", domain.DefaultConversationTitle},
		{"12345678901234567890", "12345678901234567890"},
		{"123456789012345678901", "12345678901234567890..."},
		{"日本語のとても長いメッセージをここに書いています", "日本語のとても長いメッセージをここに書い..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleFromMessage(tt.in))
	}
}

func TestChatService_Turn_NewConversation(t *testing.T) {
	repo := newMemConvRepo()
	gen := &stubGenerator{reply: "hi there"}
	svc := NewChatService(repo, gen, 10)
	userID := uuid.New()

	result, err := svc.Turn(context.Background(), userID, nil, "hello assistant")
	require.NoError(t, err)
	assert.Equal(t, "hi there", result.Reply)

	conv := repo.convs[result.ConversationID]
	require.NotNil(t, conv)
	assert.Equal(t, "hello assistant", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, domain.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, conv.Messages[1].Role)

	// New conversation has no history: the generator sees only the user turn.
	require.Len(t, gen.turns, 1)
	assert.Equal(t, "hello assistant", gen.turns[0].Content)
}

func TestChatService_Turn_ExistingConversationContext(t *testing.T) {
	repo := newMemConvRepo()
	gen := &stubGenerator{reply: "reply"}
	svc := NewChatService(repo, gen, 10)
	userID := uuid.New()
	conv := seedConversation(repo, userID, 15)

	_, err := svc.Turn(context.Background(), userID, &conv.ID, "next question")
	require.NoError(t, err)

	// 10 context turns plus the new user turn.
	require.Len(t, gen.turns, 11)
	assert.Equal(t, "message 5", gen.turns[0].Content)
	assert.Equal(t, "next question", gen.turns[10].Content)
	assert.Equal(t, domain.RoleUser, gen.turns[10].Role)
}

func TestChatService_Turn_GenerationFailureFallsBack(t *testing.T) {
	repo := newMemConvRepo()
	gen := &stubGenerator{err: errors.New("backend down")}
	svc := NewChatService(repo, gen, 10)
	userID := uuid.New()
	conv := seedConversation(repo, userID, 2)

	result, err := svc.Turn(context.Background(), userID, &conv.ID, "are you there?")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, result.Reply)
	assert.NotEmpty(t, result.Reply)

	// Exactly two messages appended: the user's and the fallback reply.
	stored := repo.convs[conv.ID]
	require.Len(t, stored.Messages, 4)
	assert.Equal(t, domain.RoleUser, stored.Messages[2].Role)
	assert.Equal(t, "are you there?", stored.Messages[2].Content)
	assert.Equal(t, domain.RoleAssistant, stored.Messages[3].Role)
	assert.Equal(t, FallbackReply, stored.Messages[3].Content)
}

func TestChatService_Turn_EmptyReplyFallsBack(t *testing.T) {
	repo := newMemConvRepo()
	svc := NewChatService(repo, &stubGenerator{reply: ""}, 10)

	result, err := svc.Turn(context.Background(), uuid.New(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, result.Reply)
}

func TestChatService_Turn_ForeignConversation(t *testing.T) {
	repo := newMemConvRepo()
	svc := NewChatService(repo, &stubGenerator{reply: "x"}, 10)
	conv := seedConversation(repo, uuid.New(), 2)

	_, err := svc.Turn(context.Background(), uuid.New(), &conv.ID, "hi")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	// Nothing was appended to the other user's conversation.
	assert.Len(t, repo.convs[conv.ID].Messages, 2)
}

func TestChatService_Get_MissingAndForeignLookAlike(t *testing.T) {
	repo := newMemConvRepo()
	svc := NewChatService(repo, &stubGenerator{}, 10)
	conv := seedConversation(repo, uuid.New(), 1)
	stranger := uuid.New()

	_, missingErr := svc.GetConversation(context.Background(), stranger, uuid.New())
	_, foreignErr := svc.GetConversation(context.Background(), stranger, conv.ID)

	assert.ErrorIs(t, missingErr, ErrConversationNotFound)
	assert.ErrorIs(t, foreignErr, ErrConversationNotFound)
	assert.Equal(t, missingErr, foreignErr)
}

func TestChatService_RenameAndDelete(t *testing.T) {
	repo := newMemConvRepo()
	svc := NewChatService(repo, &stubGenerator{}, 10)
	userID := uuid.New()
	conv := seedConversation(repo, userID, 1)

	require.NoError(t, svc.RenameConversation(context.Background(), userID, conv.ID, "renamed"))
	assert.Equal(t, "renamed", repo.convs[conv.ID].Title)

	err := svc.RenameConversation(context.Background(), uuid.New(), conv.ID, "hijacked")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, "renamed", repo.convs[conv.ID].Title)

	err = svc.DeleteConversation(context.Background(), uuid.New(), conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	require.NoError(t, svc.DeleteConversation(context.Background(), userID, conv.ID))
	assert.Empty(t, repo.convs)
}

func TestChatService_ListConversations(t *testing.T) {
	repo := newMemConvRepo()
	svc := NewChatService(repo, &stubGenerator{}, 10)
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		c := seedConversation(repo, userID, 1)
		c.UpdatedAt = time.Now().Add(time.Duration(i) * time.Minute)
	}
	seedConversation(repo, uuid.New(), 1) // someone else's

	resp, err := svc.ListConversations(context.Background(), userID, 0, 3)
	require.NoError(t, err)
	assert.Len(t, resp.Conversations, 3)
	assert.Equal(t, 5, resp.Total)

	// Newest-updated first.
	for i := 1; i < len(resp.Conversations); i++ {
		assert.True(t, resp.Conversations[i-1].UpdatedAt.After(resp.Conversations[i].UpdatedAt))
	}

	// Negative/oversized paging falls back to defaults.
	resp, err = svc.ListConversations(context.Background(), userID, -1, 1000)
	require.NoError(t, err)
	assert.Len(t, resp.Conversations, 5)
}
