package domain

// EventKind discriminates the variants of an inbound chat event.
type EventKind string

const (
	// EventCommand is a slash command, e.g. /new or /publish.
	EventCommand EventKind = "command"
	// EventAction is a button press carrying an action name and optional payload.
	EventAction EventKind = "action"
	// EventText is free text typed by the user.
	EventText EventKind = "text"
)

// Event is a classified inbound message from the chat transport. Exactly the
// fields for its Kind are populated.
type Event struct {
	Kind    EventKind
	Command string // Kind == EventCommand
	Action  string // Kind == EventAction
	Payload string // Kind == EventAction, optional
	Text    string // Kind == EventText
}

// Option is one selectable entry in a reply menu. Slug is what comes back in
// the button-press event; Label is what the user sees.
type Option struct {
	Slug  string
	Label string
}

// Reply is one outbound message for the chat transport to render. A non-empty
// Menu renders as selectable buttons under the text; a non-empty ImageURL
// renders the text as a caption on the image.
type Reply struct {
	Text     string
	ImageURL string
	Menu     []Option
}
