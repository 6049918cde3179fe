package usecase

import (
	"fmt"
	"strings"

	"reads-agent/internal/domain"
)

// User-facing reply text. Kept in one place so the conversation handlers stay
// readable and tests can assert on exact copy.
const (
	msgPromptURL       = "Send me the link you want to add."
	msgPromptTitle     = "What title should this item have?"
	msgPromptDesc      = "Send a description (or \"none\" to leave it empty)."
	msgPromptSector    = "Pick a sector:"
	msgPromptTag       = "Pick a content type:"
	msgPasteURL        = "Paste a URL to get started, or send /new."
	msgSendLinkFirst   = "Send a link first."
	msgAlreadyListed   = "That link is already on the list."
	msgCouldNotResolve = "I couldn't read anything from that link. Try another one."
	msgPublished       = "Added to the list ✅"
	msgUnauthorized    = "I'm not authorized to write to the list right now. Check the bot's credentials and try /publish again."
	msgPublishRetry    = "Something went wrong while publishing. Try /publish again."
	msgUnknownOption   = "That's not one of the options."
	msgUnknownCommand  = "I don't know that command. Send /help."
	msgBuildingHint    = "Use the buttons or commands to finish the item, or paste a new link."
)

const msgHelp = `Here's what I can do:
/new - start a new item
/preview - show the current draft
/publish - add the draft to the list
/settitle - change the title
/setdescription - change the description
/setsector - change the sector
/settype - change the content type

Paste any link to start a draft from it.`

func sectorMenu() domain.Reply {
	opts := make([]domain.Option, 0, len(domain.Sectors))
	for _, s := range domain.Sectors {
		opts = append(opts, domain.Option{Slug: "sector:" + string(s), Label: s.Label()})
	}
	return domain.Reply{Text: msgPromptSector, Menu: opts}
}

func tagMenu() domain.Reply {
	opts := make([]domain.Option, 0, len(domain.Tags))
	for _, t := range domain.Tags {
		opts = append(opts, domain.Option{Slug: "tag:" + string(t), Label: t.Label()})
	}
	return domain.Reply{Text: msgPromptTag, Menu: opts}
}

func previewReply(d domain.Draft) domain.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", orUnset(d.Title), d.Link)
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}
	fmt.Fprintf(&b, "\nSector: %s\nType: %s", orUnset(sectorLabel(d.Sector)), orUnset(tagLabel(d.Tag)))
	return domain.Reply{
		Text:     b.String(),
		ImageURL: d.ImageURL,
		Menu: []domain.Option{
			{Slug: "publish", Label: "Publish"},
			{Slug: "settitle", Label: "Edit title"},
			{Slug: "setdescription", Label: "Edit description"},
			{Slug: "setsector", Label: "Edit sector"},
			{Slug: "settype", Label: "Edit type"},
			{Slug: "new", Label: "Start over"},
		},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func sectorLabel(s domain.Sector) string {
	if s == "" {
		return ""
	}
	return s.Label()
}

func tagLabel(t domain.Tag) string {
	if t == "" {
		return ""
	}
	return t.Label()
}
