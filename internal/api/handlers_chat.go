package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/legalchunk/internal/chat"
	"github.com/dgallion1/legalchunk/internal/chunker"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// chatMessageBody is the POST /chat-messages payload. Both fields must be
// present; empty strings are accepted.
type chatMessageBody struct {
	SessionID *string   `json:"session_id" validate:"required"`
	Message   *string   `json:"message" validate:"required"`
	Excerpts  []excerpt `json:"excerpts" validate:"omitempty,max=20,dive"`
}

type excerpt struct {
	Content string `json:"content" validate:"required"`
	Chapter string `json:"chapter"`
	Article string `json:"article"`
}

type chatMessageResponse struct {
	SessionID  string `json:"session_id"`
	BotMessage string `json:"bot_message"`
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.log.With("request_id", middleware.GetReqID(ctx))

	var body chatMessageBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := validate.Struct(body); err != nil {
		jsonError(w, validationMessage(err), http.StatusUnprocessableEntity)
		return
	}

	req := chat.Request{SessionID: *body.SessionID, Message: *body.Message}
	for _, e := range body.Excerpts {
		req.Excerpts = append(req.Excerpts, chunker.Chunk{Content: e.Content, Chapter: e.Chapter, Article: e.Article})
	}

	resp, err := s.deps.Chat.Reply(ctx, req)
	if err != nil {
		log.Error("unexpected error during chat message processing", "error", err)
		jsonError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, chatMessageResponse{
		SessionID:  resp.SessionID,
		BotMessage: resp.BotMessage,
	})
}

// validationMessage lists the failing fields.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		parts = append(parts, field+": "+fe.Tag())
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// jsonError writes {"detail": msg}, the error shape existing chat clients
// read.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"detail": msg})
}
