package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reads-agent/internal/domain"
)

const defaultDuplicateCheckLimit = 50

// PreviewFetcher retrieves structured metadata for a link.
type PreviewFetcher interface {
	Fetch(ctx context.Context, link string) (domain.LinkPreview, error)
}

// Summarizer produces a short textual summary of a link's content.
type Summarizer interface {
	Summarize(ctx context.Context, link string) (string, error)
}

// ListStore is the external list-storage API the bot publishes into.
type ListStore interface {
	RecentLinks(ctx context.Context, limit int) ([]string, error)
	CreateItem(ctx context.Context, item domain.Item) error
}

// State names where a conversation currently sits.
type State string

const (
	StateNone                State = "none"
	StateAwaitingURL         State = "awaiting_url"
	StateAwaitingTitle       State = "awaiting_title"
	StateAwaitingDescription State = "awaiting_description"
	StateBuilding            State = "building"
)

// session is one user's ephemeral conversation state. It lives only as long
// as the process does, and the transport delivers at most one event per
// session at a time, so the fields themselves need no locking.
type session struct {
	state State
	draft domain.Draft
}

func (c *session) reset() {
	c.state = StateNone
	c.draft = domain.Draft{}
}

// Service is the conversation state machine. It owns the session map and is
// the only place session state is mutated.
type Service struct {
	preview             PreviewFetcher
	summarizer          Summarizer
	list                ListStore
	duplicateCheckLimit int

	mu       sync.Mutex
	sessions map[int64]*session

	now   func() time.Time
	newID func() string
}

func NewService(preview PreviewFetcher, summarizer Summarizer, list ListStore, duplicateCheckLimit int) (*Service, error) {
	if preview == nil {
		return nil, errors.New("usecase: preview fetcher must not be nil")
	}
	if summarizer == nil {
		return nil, errors.New("usecase: summarizer must not be nil")
	}
	if list == nil {
		return nil, errors.New("usecase: list store must not be nil")
	}
	if duplicateCheckLimit <= 0 {
		duplicateCheckLimit = defaultDuplicateCheckLimit
	}
	return &Service{
		preview:             preview,
		summarizer:          summarizer,
		list:                list,
		duplicateCheckLimit: duplicateCheckLimit,
		sessions:            make(map[int64]*session),
		now:                 time.Now,
		newID:               uuid.NewString,
	}, nil
}

// HandleEvent is the single entry point for classified chat events. Every
// collaborator failure resolves to a reply plus a valid next state; the
// returned replies are ordered and must be rendered in order.
func (s *Service) HandleEvent(ctx context.Context, chatID int64, from string, ev domain.Event) []domain.Reply {
	sess := s.session(chatID)

	switch ev.Kind {
	case domain.EventCommand:
		return s.handleCommand(ctx, sess, from, ev.Command)
	case domain.EventAction:
		return s.handleAction(ctx, sess, from, ev.Action, ev.Payload)
	case domain.EventText:
		return s.handleText(ctx, sess, ev.Text)
	default:
		return reply(msgPasteURL)
	}
}

// session returns the conversation for a chat, creating it lazily. Only the
// map access is guarded; per-session events arrive serially.
func (s *Service) session(chatID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &session{state: StateNone}
		s.sessions[chatID] = sess
	}
	return sess
}

func (s *Service) handleCommand(ctx context.Context, sess *session, from, command string) []domain.Reply {
	switch command {
	case "new", "start":
		return startNew(sess)
	case "publish":
		return s.publish(ctx, sess, from)
	case "help":
		if sess.draft.Link == "" {
			return reply(msgSendLinkFirst)
		}
		return reply(msgHelp)
	case "preview":
		if sess.draft.Link == "" {
			return reply(msgSendLinkFirst)
		}
		return []domain.Reply{previewReply(sess.draft)}
	case "settitle":
		if sess.draft.Link == "" {
			return reply(msgSendLinkFirst)
		}
		sess.state = StateAwaitingTitle
		return reply(msgPromptTitle)
	case "setdescription":
		if sess.draft.Link == "" {
			return reply(msgSendLinkFirst)
		}
		sess.state = StateAwaitingDescription
		return reply(msgPromptDesc)
	case "setsector":
		if sess.draft.Link == "" {
			return reply(msgSendLinkFirst)
		}
		sess.state = StateBuilding
		return []domain.Reply{sectorMenu()}
	case "settype":
		if sess.draft.Link == "" {
			return reply(msgSendLinkFirst)
		}
		sess.state = StateBuilding
		return []domain.Reply{tagMenu()}
	default:
		return reply(msgUnknownCommand)
	}
}

func (s *Service) handleAction(ctx context.Context, sess *session, from, action, payload string) []domain.Reply {
	switch action {
	case "sector":
		sector, ok := domain.ParseSector(payload)
		if !ok {
			return reply(msgUnknownOption)
		}
		sess.draft.Sector = sector
		return s.enterBuilding(sess)
	case "tag":
		tag, ok := domain.ParseTag(payload)
		if !ok {
			return reply(msgUnknownOption)
		}
		sess.draft.Tag = tag
		return s.enterBuilding(sess)
	default:
		// The preview action menu reuses the command vocabulary.
		return s.handleCommand(ctx, sess, from, action)
	}
}

func (s *Service) handleText(ctx context.Context, sess *session, text string) []domain.Reply {
	text = strings.TrimSpace(text)

	// A pasted link always starts a fresh draft, whatever was in flight.
	if sess.state == StateAwaitingURL || LooksLikeURL(text) {
		return s.handleLink(ctx, sess, text)
	}

	switch sess.state {
	case StateAwaitingTitle:
		sess.draft.Title = text
		return s.enterBuilding(sess)
	case StateAwaitingDescription:
		if strings.EqualFold(text, "none") {
			sess.draft.Description = ""
		} else {
			sess.draft.Description = TruncateDescription(text)
		}
		return s.enterBuilding(sess)
	case StateNone:
		return reply(msgPasteURL)
	default:
		return reply(msgBuildingHint)
	}
}

// handleLink resets the draft around the new link and runs the resolution
// chain, translating each failure kind into its reply and next state.
func (s *Service) handleLink(ctx context.Context, sess *session, raw string) []domain.Reply {
	link := NormalizeURL(raw)
	sess.reset()
	sess.draft.Link = link

	prev, rerr := s.resolveLink(ctx, link)
	if rerr != nil {
		switch rerr.Code {
		case ErrorDuplicateLink:
			sess.reset()
			return reply(msgAlreadyListed)
		default: // ErrorUnresolvedURL
			sess.reset()
			sess.state = StateAwaitingURL
			return reply(msgCouldNotResolve, msgPromptURL)
		}
	}

	sess.draft.Title = prev.Title
	sess.draft.Description = prev.Description
	sess.draft.ImageURL = prev.ImageURL
	if tag, ok := domain.DefaultTagForLink(link); ok {
		sess.draft.Tag = tag
	}
	return s.enterBuilding(sess)
}

// enterBuilding recomputes the next missing field after any mutation and
// dispatches the matching prompt.
func (s *Service) enterBuilding(sess *session) []domain.Reply {
	sess.state = StateBuilding
	switch NextMissingField(sess.draft) {
	case FieldTitle:
		sess.state = StateAwaitingTitle
		return reply(msgPromptTitle)
	case FieldSector:
		return []domain.Reply{sectorMenu()}
	case FieldTag:
		return []domain.Reply{tagMenu()}
	default:
		return []domain.Reply{previewReply(sess.draft)}
	}
}

func (s *Service) publish(ctx context.Context, sess *session, from string) []domain.Reply {
	if sess.draft.Link == "" {
		return reply(msgSendLinkFirst)
	}

	item := domain.Item{
		ID:          s.newID(),
		Link:        sess.draft.Link,
		Title:       sess.draft.Title,
		Description: sess.draft.Description,
		ImageURL:    sess.draft.ImageURL,
		Sector:      sess.draft.Sector,
		Tag:         sess.draft.Tag,
		SubmittedBy: from,
		CreatedAt:   s.now().UTC(),
	}

	err := s.list.CreateItem(ctx, item)
	switch {
	case err == nil:
		sess.reset()
		return reply(msgPublished)
	case errors.Is(err, domain.ErrDuplicateItem):
		sess.reset()
		return reply(msgAlreadyListed)
	case errors.Is(err, domain.ErrUnauthorized):
		return reply(msgUnauthorized)
	default:
		return reply(msgPublishRetry)
	}
}

func startNew(sess *session) []domain.Reply {
	sess.reset()
	sess.state = StateAwaitingURL
	return reply(msgPromptURL)
}

func reply(texts ...string) []domain.Reply {
	out := make([]domain.Reply, 0, len(texts))
	for _, t := range texts {
		out = append(out, domain.Reply{Text: t})
	}
	return out
}
