package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
	"elearning_go/internal/security"
)

const (
	timeLayout        = "15:04"
	maxMessageRunes   = 5000
	undecryptableText = "[message unavailable]"
)

// ChatService owns conversations and messages for the inbox endpoints.
type ChatService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	encryptor     *security.Encryptor
	log           zerolog.Logger

	MaxMessagesPerConversation int
	HistoryLimit               int
}

func NewChatService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	encryptor *security.Encryptor,
	maxMessages int,
	log zerolog.Logger,
) *ChatService {
	return &ChatService{
		conversations:              conversations,
		participants:               participants,
		messages:                   messages,
		users:                      users,
		encryptor:                  encryptor,
		log:                        observability.WithComponent(log, "chat"),
		MaxMessagesPerConversation: maxMessages,
		HistoryLimit:               200,
	}
}

// Delivery is a persisted message ready to be pushed to every participant.
type Delivery struct {
	Frame          domain.InboxFrame
	ParticipantIDs []int64
}

// List returns the caller's conversations, most recently active first.
func (s *ChatService) List(ctx context.Context, userID int64) ([]domain.ConversationSummary, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	type entry struct {
		summary domain.ConversationSummary
		lastID  int64
	}
	entries := make([]entry, 0, len(convs))
	for _, c := range convs {
		people, err := s.participants.ListParticipants(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		other := counterpart(people, userID)
		if other == nil {
			continue
		}

		sum := domain.ConversationSummary{
			ID:        domain.ID(c.ID),
			UserID:    domain.ID(other.ID),
			Name:      other.DisplayName(),
			AvatarURL: other.AvatarURL(),
			Role:      other.Role.Display(),
		}
		last, err := s.messages.LastForConversation(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		var lastID int64
		if last != nil {
			lastID = last.ID
			sum.LastMessage = s.plain(last)
			sum.SenderID = domain.ID(last.SenderID)
			sum.Time = last.CreatedAt.Format(timeLayout)
		}
		entries = append(entries, entry{summary: sum, lastID: lastID})
	}

	// Repository order breaks ties between conversations without messages.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].lastID > entries[j].lastID
	})
	out := make([]domain.ConversationSummary, len(entries))
	for i, e := range entries {
		out[i] = e.summary
	}
	return out, nil
}

// History returns the newest messages of a conversation in chronological
// order. Only participants may read it.
func (s *ChatService) History(ctx context.Context, conversationID, userID int64) ([]domain.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	records, err := s.messages.ListForConversation(ctx, conversationID, s.HistoryLimit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(records))
	for _, m := range records {
		out = append(out, domain.Message{
			ID:             messageID(m.ID),
			ConversationID: domain.ID(m.ConversationID),
			SenderID:       domain.ID(m.SenderID),
			Content:        s.plain(m),
			CreatedAt:      m.CreatedAt.Format(timeLayout),
		})
	}
	return out, nil
}

// Start returns the direct conversation between userID and otherID, creating
// it when none exists yet.
func (s *ChatService) Start(ctx context.Context, userID, otherID int64) (int64, error) {
	if userID == otherID {
		return 0, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidInput)
	}
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if other == nil || !other.IsActive {
		return 0, domain.ErrNotFound
	}

	existing, err := s.conversations.FindDirect(ctx, userID, otherID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	conv := &domain.Conversation{}
	if err := s.conversations.Create(ctx, conv, []int64{userID, otherID}); err != nil {
		return 0, err
	}
	s.log.Debug().Int64("conversation_id", conv.ID).Int64("user_id", userID).Int64("other_id", otherID).Msg("conversation started")
	return conv.ID, nil
}

// Send stores a message and returns the frame to push to every participant,
// the sender included.
func (s *ChatService) Send(ctx context.Context, senderID, conversationID int64, text string) (*Delivery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len([]rune(text)) > maxMessageRunes {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidInput, maxMessageRunes)
	}
	if err := s.requireParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	encrypted, err := s.encryptor.Encrypt(text)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}
	rec := &domain.MessageRecord{
		Content:        encrypted,
		ConversationID: conversationID,
		SenderID:       senderID,
	}
	if err := s.messages.Create(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(ctx, conversationID); err != nil {
		return nil, err
	}
	if s.MaxMessagesPerConversation > 0 {
		if err := s.messages.PruneOld(ctx, conversationID, s.MaxMessagesPerConversation); err != nil {
			return nil, fmt.Errorf("prune old messages: %w", err)
		}
	}

	people, err := s.participants.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &Delivery{
		Frame: domain.InboxFrame{
			ConversationID: domain.ID(conversationID),
			MessageID:      messageID(rec.ID),
			Message:        text,
			SenderID:       domain.ID(senderID),
			CreatedAt:      created.Format(timeLayout),
		},
		ParticipantIDs: ids,
	}, nil
}

// IsParticipant reports whether userID belongs to the conversation.
func (s *ChatService) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	return s.participants.IsParticipant(ctx, conversationID, userID)
}

func (s *ChatService) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return domain.ErrNotFound
	}
	ok, err := s.participants.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: not a participant in this conversation", domain.ErrForbidden)
	}
	return nil
}

func (s *ChatService) plain(m *domain.MessageRecord) string {
	text, err := s.encryptor.Decrypt(m.Content)
	if err != nil {
		s.log.Warn().Err(err).Int64("message_id", m.ID).Msg("decrypt message")
		return undecryptableText
	}
	return text
}

func counterpart(people []*domain.User, userID int64) *domain.User {
	for _, p := range people {
		if p.ID != userID {
			return p
		}
	}
	return nil
}

func messageID(id int64) domain.MessageID {
	return domain.MessageID(strconv.FormatInt(id, 10))
}
