package usecase

import (
	"reads-agent/internal/domain"
)

// Field identifies a draft field the conversation still has to collect.
type Field string

const (
	FieldTitle  Field = "title"
	FieldSector Field = "sector"
	FieldTag    Field = "tag"
	FieldNone   Field = "none"
)

// maxDescriptionLen is the storage limit for item descriptions, in runes.
const maxDescriptionLen = 500

const descriptionEllipsis = "..."

// NextMissingField reports which required field the draft still lacks,
// checked in fixed priority order: title, then sector, then tag. FieldNone
// means the draft is ready for preview and publish.
func NextMissingField(d domain.Draft) Field {
	switch {
	case d.Title == "":
		return FieldTitle
	case d.Sector == "":
		return FieldSector
	case d.Tag == "":
		return FieldTag
	default:
		return FieldNone
	}
}

// TruncateDescription clamps a description to maxDescriptionLen runes,
// replacing the tail with an ellipsis marker when it overflows.
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen-len(descriptionEllipsis)]) + descriptionEllipsis
}
