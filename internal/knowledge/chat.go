package knowledge

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultConversationTitle names conversations created without a first message.
const DefaultConversationTitle = "New Conversation"

var (
	// ErrInvalidConversation is returned for conversation ids below one.
	ErrInvalidConversation = errors.New("conversation id is invalid")
	// ErrEmptyMessage is returned when a chat message has no text.
	ErrEmptyMessage = errors.New("message is empty")
)

func conversationPath(id int) string {
	return pathConversations + "/" + strconv.Itoa(id)
}

// CreateConversation starts an empty conversation.
func (s *Service) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultConversationTitle
	}

	var conversation Conversation

	if err := s.api.Post(ctx, pathConversations, map[string]string{"title": title}, &conversation); err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}

	return &conversation, nil
}

// DeleteConversation removes a conversation with all its messages.
func (s *Service) DeleteConversation(ctx context.Context, id int) error {
	if id < 1 {
		return ErrInvalidConversation
	}

	return errors.Wrapf(s.api.Delete(ctx, conversationPath(id)), "failed to delete conversation %d", id)
}

// ListMessages returns the messages of a conversation, oldest first.
func (s *Service) ListMessages(ctx context.Context, id int) ([]Message, error) {
	if id < 1 {
		return nil, ErrInvalidConversation
	}

	var messages []Message

	if err := s.api.Get(ctx, conversationPath(id)+"/messages", nil, &messages); err != nil {
		return nil, errors.Wrapf(err, "failed to list messages of conversation %d", id)
	}

	return messages, nil
}

// SendMessage posts a user message and returns the assistant's answer.
func (s *Service) SendMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, ErrEmptyMessage
	}

	if req.ConversationID != nil && *req.ConversationID < 1 {
		return nil, ErrInvalidConversation
	}

	var resp ChatResponse

	if err := s.api.Post(ctx, pathChat, req, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to send message")
	}

	return &resp, nil
}
