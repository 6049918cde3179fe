// Package handler adapts Telegram webhook updates to conversation events and
// renders the replies back through the Bot API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"reads-agent/internal/domain"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Conversation is the core entry point the handler dispatches into.
type Conversation interface {
	HandleEvent(ctx context.Context, chatID int64, from string, ev domain.Event) []domain.Reply
}

// Messenger renders replies back to the chat platform.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, reply domain.Reply) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
}

// update is the subset of a Telegram update the bot cares about.
type update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *message       `json:"message"`
	CallbackQuery *callbackQuery `json:"callback_query"`
}

type message struct {
	MessageID int64  `json:"message_id"`
	From      *user  `json:"from"`
	Chat      chat   `json:"chat"`
	Text      string `json:"text"`
}

type callbackQuery struct {
	ID      string   `json:"id"`
	From    *user    `json:"from"`
	Message *message `json:"message"`
	Data    string   `json:"data"`
}

type user struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type chat struct {
	ID int64 `json:"id"`
}

type Handler struct {
	conv          Conversation
	messenger     Messenger
	webhookSecret string
}

func NewHandler(conv Conversation, messenger Messenger, webhookSecret string) (*Handler, error) {
	if conv == nil {
		return nil, errors.New("handler: conversation must not be nil")
	}
	if messenger == nil {
		return nil, errors.New("handler: messenger must not be nil")
	}
	if strings.TrimSpace(webhookSecret) == "" {
		return nil, errors.New("handler: webhook secret must not be empty")
	}
	return &Handler{conv: conv, messenger: messenger, webhookSecret: webhookSecret}, nil
}

// Handle processes one webhook delivery. It always answers 200 for accepted
// updates, including ones it cannot act on, so Telegram does not redeliver;
// only a bad secret token is rejected.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, "X-Correlation-Id")
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := slog.With("correlation_id", correlationID)

	if headerValue(req.Headers, secretTokenHeader) != h.webhookSecret {
		log.Warn("webhook secret token mismatch")
		return respond(http.StatusUnauthorized, correlationID), nil
	}

	var upd update
	if err := json.Unmarshal([]byte(req.Body), &upd); err != nil {
		log.Warn("discarding malformed update", "err", err)
		return respond(http.StatusOK, correlationID), nil
	}

	chatID, from, ev, ok := classifyUpdate(upd)
	if !ok {
		log.Info("discarding update with no actionable content", "update_id", upd.UpdateID)
		return respond(http.StatusOK, correlationID), nil
	}

	if upd.CallbackQuery != nil {
		if err := h.messenger.AnswerCallbackQuery(ctx, upd.CallbackQuery.ID); err != nil {
			log.Warn("failed to answer callback query", "err", err)
		}
	}

	replies := h.conv.HandleEvent(ctx, chatID, from, ev)
	for _, reply := range replies {
		if err := h.messenger.SendMessage(ctx, chatID, reply); err != nil {
			log.Error("failed to send reply", "chat_id", chatID, "err", err)
		}
	}

	log.Info("processed update", "update_id", upd.UpdateID, "event_kind", ev.Kind, "replies", len(replies))
	return respond(http.StatusOK, correlationID), nil
}

// classifyUpdate turns a raw update into a chat id, a submitter identity and
// a classified event. ok is false when the update carries nothing to act on.
func classifyUpdate(upd update) (chatID int64, from string, ev domain.Event, ok bool) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		cq := upd.CallbackQuery
		action, payload := splitActionData(cq.Data)
		if action == "" {
			return 0, "", domain.Event{}, false
		}
		return cq.Message.Chat.ID, userIdentity(cq.From), domain.Event{
			Kind:    domain.EventAction,
			Action:  action,
			Payload: payload,
		}, true

	case upd.Message != nil && strings.TrimSpace(upd.Message.Text) != "":
		msg := upd.Message
		text := strings.TrimSpace(msg.Text)
		if strings.HasPrefix(text, "/") {
			return msg.Chat.ID, userIdentity(msg.From), domain.Event{
				Kind:    domain.EventCommand,
				Command: parseCommand(text),
			}, true
		}
		return msg.Chat.ID, userIdentity(msg.From), domain.Event{
			Kind: domain.EventText,
			Text: text,
		}, true

	default:
		return 0, "", domain.Event{}, false
	}
}

// parseCommand extracts the bare command name from "/cmd", "/cmd args" or
// the group-chat form "/cmd@botname".
func parseCommand(text string) string {
	cmd := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(cmd, " @"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// splitActionData splits callback data "action:payload" into its parts;
// bare actions like "publish" have an empty payload.
func splitActionData(data string) (action, payload string) {
	data = strings.TrimSpace(data)
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

func userIdentity(u *user) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(status int, correlationID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": correlationID,
		},
		Body: "{}",
	}
}
