// Package chat serves the AI chat: the conversation list, one conversation
// with its messages, and sending a message to the assistant.
package chat

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/knowledge"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
	"github.com/knowledgeai/knowledge-console/internal/web/navigation"
)

const (
	// Path is the path to the chat page.
	Path = handler.RootPath + "chat"

	// TemplateName is the name of the chat template.
	TemplateName = "chat/chat"
)

// ErrInvalidFormData is shown when the message form could not be parsed.
var ErrInvalidFormData = errors.New("invalid form data")

// Form is a submitted chat message.
type Form struct {
	Message string `form:"message" validate:"required"`
}

// Service is the chat handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the chat handler.
var Handler = Service{}

// Init initializes the chat handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Create)
		router.Get("/:id", s.Show)
		router.Post("/:id", s.Send)
		router.Post("/:id/delete", s.Delete)
	})

	return nil
}

// ConversationPath returns the page of conversation id.
func ConversationPath(id int) string {
	return Path + "/" + strconv.Itoa(id)
}

// Get renders the conversations, most recently updated first.
func (s *Service) Get(c *fiber.Ctx) error {
	conversations, err := s.conversations(c)
	if err != nil {
		return s.fail(c, err, "Failed to load conversations")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation":    s.navigation(c, nil),
		"Conversations": conversations,
	}, handler.BaseLayout)
}

// Create starts a conversation. With a message the assistant answers it
// right away, otherwise an empty conversation is created.
func (s *Service) Create(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).Render(TemplateName, fiber.Map{
			"Navigation": s.navigation(c, nil),
			"error":      ErrInvalidFormData.Error(),
		}, handler.BaseLayout)
	}

	ctx := c.UserContext()

	if strings.TrimSpace(form.Message) == "" {
		conversation, err := s.deps.Knowledge.CreateConversation(ctx, knowledge.DefaultConversationTitle)
		if err != nil {
			return s.fail(c, err, "Failed to start conversation")
		}

		log.Info().Int("conversation", conversation.ID).Msg("conversation created")

		return c.Redirect(ConversationPath(conversation.ID))
	}

	resp, err := s.deps.Knowledge.SendMessage(ctx, knowledge.ChatRequest{Message: form.Message})
	if err != nil {
		return s.fail(c, err, "Failed to send message")
	}

	log.Info().Int("conversation", resp.ConversationID).Msg("conversation created")

	return c.Redirect(ConversationPath(resp.ConversationID))
}

// Show renders one conversation next to the conversation list.
func (s *Service) Show(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return s.notFound(c)
	}

	return s.show(c, id, fiber.StatusOK, "")
}

// Send posts a message to a conversation and shows the answer.
func (s *Service) Send(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return s.notFound(c)
	}

	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return s.show(c, id, fiber.StatusBadRequest, ErrInvalidFormData.Error())
	}

	if errs := handler.Validate(form); len(errs) > 0 {
		return s.show(c, id, fiber.StatusUnprocessableEntity, handler.FirstMessage(errs))
	}

	_, err := s.deps.Knowledge.SendMessage(c.UserContext(), knowledge.ChatRequest{
		Message:        form.Message,
		ConversationID: &id,
	})
	if errors.Is(err, knowledge.ErrEmptyMessage) {
		return s.show(c, id, fiber.StatusUnprocessableEntity, "Message is required")
	}

	if err != nil {
		return s.fail(c, err, "Failed to send message")
	}

	return c.Redirect(ConversationPath(id))
}

// Delete removes a conversation and returns to the list.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return s.notFound(c)
	}

	if err := s.deps.Knowledge.DeleteConversation(c.UserContext(), id); err != nil {
		return s.fail(c, err, "Failed to delete conversation")
	}

	log.Info().Int("conversation", id).Msg("conversation deleted")

	return c.Redirect(Path)
}

func (s *Service) show(c *fiber.Ctx, id, status int, formError string) error {
	ctx := c.UserContext()

	conversations, err := s.conversations(c)
	if err != nil {
		return s.fail(c, err, "Failed to load conversations")
	}

	messages, err := s.deps.Knowledge.ListMessages(ctx, id)
	if err != nil {
		return s.fail(c, err, "Failed to load messages")
	}

	var active *knowledge.Conversation

	for i := range conversations {
		if conversations[i].ID == id {
			active = &conversations[i]

			break
		}
	}

	data := fiber.Map{
		"Navigation":    s.navigation(c, active),
		"Conversations": conversations,
		"Active":        id,
		"Conversation":  active,
		"Messages":      messages,
	}
	if formError != "" {
		data["error"] = formError
	}

	return c.Status(status).Render(TemplateName, data, handler.BaseLayout)
}

func (s *Service) conversations(c *fiber.Ctx) ([]knowledge.Conversation, error) {
	conversations, err := s.deps.Knowledge.ListConversations(c.UserContext())
	if err != nil {
		return nil, err
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt > conversations[j].UpdatedAt
	})

	return conversations, nil
}

func (s *Service) navigation(c *fiber.Ctx, active *knowledge.Conversation) *navigation.Context {
	if active == nil {
		return handler.Navigation(c, "Chat", navigation.SectionChat).
			AddBreadcrumb("Home", "/", false).
			AddBreadcrumb("Chat", Path, true)
	}

	return handler.Navigation(c, active.Title, navigation.SectionChat).
		AddBreadcrumb("Home", "/", false).
		AddBreadcrumb("Chat", Path, false).
		AddBreadcrumb(active.Title, ConversationPath(active.ID), true)
}

func (s *Service) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render(TemplateName, fiber.Map{
		"Navigation": s.navigation(c, nil),
		"error":      "Conversation not found",
	}, handler.BaseLayout)
}

// fail sends an expired session to the login page. Other errors render a
// fixed message; the cause is only logged.
func (s *Service) fail(c *fiber.Ctx, err error, msg string) error {
	if api.IsUnauthorized(err) {
		return c.Redirect(guard.LoginPath)
	}

	if api.StatusCode(err) == http.StatusNotFound {
		return s.notFound(c)
	}

	log.Error().Err(err).Msg(msg)

	return c.Status(fiber.StatusBadGateway).Render(TemplateName, fiber.Map{
		"Navigation": s.navigation(c, nil),
		"error":      msg,
	}, handler.BaseLayout)
}

func conversationID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return 0, false
	}

	return id, true
}
