package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ssechat/pkg/utils"
)

// ChatRequest is the body of POST /chat and POST /chat/stream.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// HistoryResponse is the body returned by GET /conversations/:id/history.
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// tokenEvent and endEvent are the JSON payloads of the SSE stream.
type tokenEvent struct {
	Token string `json:"token"`
}

type endEvent struct {
	End bool `json:"end"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Chatbot API is running",
		"version": utils.Version,
	})
}

// handleChat answers with the complete reply in one JSON response.
func (s *Server) handleChat(c *fiber.Ctx) error {
	req, err := parseChatRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	conversationID := c.Query("conversation_id", defaultConversationID)
	reply := strings.Join(s.config.Responder(req.Message), "")

	s.conversations.append(conversationID,
		HistoryMessage{Type: messageTypeHuman, Content: req.Message},
		HistoryMessage{Type: messageTypeAI, Content: reply},
	)

	return c.JSON(ChatResponse{
		Response:       reply,
		ConversationID: conversationID,
	})
}

// handleChatStream answers with an SSE stream of reply tokens.
func (s *Server) handleChatStream(c *fiber.Ctx) error {
	req, err := parseChatRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	conversationID := c.Query("conversation_id", defaultConversationID)
	tokens := s.config.Responder(req.Message)

	s.conversations.append(conversationID, HistoryMessage{Type: messageTypeHuman, Content: req.Message})

	s.logger.Debug("streaming chat reply",
		"conversation_id", conversationID,
		"tokens", len(tokens),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe gives per-event flushing: fasthttp writes each chunk to the
	// socket as soon as the pipe reader returns it.
	pr, pw := io.Pipe()
	go s.writeStream(pw, conversationID, tokens)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

// writeStream emits one event per token followed by the end event, then
// records the reply in the conversation.
func (s *Server) writeStream(pw *io.PipeWriter, conversationID string, tokens []string) {
	defer pw.Close()

	var reply strings.Builder
	for _, tok := range tokens {
		if s.config.TokenDelay > 0 {
			time.Sleep(s.config.TokenDelay)
		}

		if err := writeEvent(pw, tokenEvent{Token: tok}); err != nil {
			s.logger.Debug("client went away mid-stream",
				"conversation_id", conversationID,
				"error", err,
			)
			return
		}
		reply.WriteString(tok)
	}

	if err := writeEvent(pw, endEvent{End: true}); err != nil {
		s.logger.Debug("client went away before end event",
			"conversation_id", conversationID,
			"error", err,
		)
	}

	s.conversations.append(conversationID, HistoryMessage{Type: messageTypeAI, Content: reply.String()})
}

func writeEvent(w io.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"conversations": s.conversations.ids()})
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	messages := s.conversations.history(c.Params("id"))
	if messages == nil {
		messages = []HistoryMessage{}
	}

	return c.JSON(HistoryResponse{Messages: messages})
}

func (s *Server) handleClearConversation(c *fiber.Ctx) error {
	id := c.Params("id")
	if !s.conversations.remove(id) {
		return c.JSON(fiber.Map{"message": fmt.Sprintf("conversation %s does not exist", id)})
	}

	return c.JSON(fiber.Map{"message": fmt.Sprintf("conversation %s cleared", id)})
}

func parseChatRequest(c *fiber.Ctx) (*ChatRequest, error) {
	req := &ChatRequest{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}
