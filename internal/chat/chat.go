// Package chat produces bot replies for the chat-messages endpoint.
package chat

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks github.com/dgallion1/legalchunk/internal/chat Service
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks github.com/dgallion1/legalchunk/internal/chat Completer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/legalchunk/internal/chunker"
	"github.com/dgallion1/legalchunk/internal/llm"
)

// ErrExternalService wraps failures of the completion backend.
var ErrExternalService = errors.New("external service error")

// Request is one user turn. Excerpts optionally ground the answer in
// chunks the caller retrieved.
type Request struct {
	SessionID string
	Message   string
	Excerpts  []chunker.Chunk
}

// Response is the bot's answer for the session.
type Response struct {
	SessionID  string
	BotMessage string
}

// Service answers chat requests.
type Service interface {
	Reply(ctx context.Context, req Request) (Response, error)
}

// Completer is the slice of the LLM client the chat service needs.
type Completer interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// EchoService answers "Echo: <message>". It is used when no LLM backend is
// configured.
type EchoService struct{}

func (EchoService) Reply(_ context.Context, req Request) (Response, error) {
	return Response{SessionID: req.SessionID, BotMessage: "Echo: " + req.Message}, nil
}

// LLMService forwards the message to a chat completion backend, retrying
// transient failures.
type LLMService struct {
	client  Completer
	retrier llm.Retrier
	log     *slog.Logger
}

func NewLLMService(client Completer, retrier llm.Retrier, log *slog.Logger) *LLMService {
	if log == nil {
		log = slog.Default()
	}
	if retrier.Log == nil {
		retrier.Log = log
	}
	return &LLMService{client: client, retrier: retrier, log: log}
}

func (s *LLMService) Reply(ctx context.Context, req Request) (Response, error) {
	msgs := llm.BuildMessages(req.Message, req.Excerpts)
	reply, err := s.retrier.Do(ctx, func(ctx context.Context) (string, error) {
		return s.client.Chat(ctx, msgs)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "llm reply failed", "session_id", req.SessionID, "error", err)
		return Response{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	s.log.InfoContext(ctx, "chat reply", "session_id", req.SessionID,
		"message_length", len(req.Message), "reply_length", len(reply), "excerpts", len(req.Excerpts))
	return Response{SessionID: req.SessionID, BotMessage: reply}, nil
}
