package domain

import (
	"net/url"
	"strings"
	"time"
)

// Tag classifies the kind of content behind a link.
type Tag string

const (
	TagReads   Tag = "reads"
	TagTweets  Tag = "tweets"
	TagMedia   Tag = "media"
	TagNews    Tag = "news"
	TagPodcast Tag = "podcast"
	TagOther   Tag = "other"
)

// Sector classifies which part of the space an item belongs to.
type Sector string

const (
	SectorGeneral        Sector = "general"
	SectorFinance        Sector = "finance"
	SectorInfrastructure Sector = "infrastructure"
	SectorMacroMarkets   Sector = "macro-markets"
	SectorMetaverse      Sector = "metaverse"
)

// Tags lists every valid tag in menu order.
var Tags = []Tag{TagReads, TagTweets, TagMedia, TagNews, TagPodcast, TagOther}

// Sectors lists every valid sector in menu order.
var Sectors = []Sector{SectorGeneral, SectorFinance, SectorInfrastructure, SectorMacroMarkets, SectorMetaverse}

var tagLabels = map[Tag]string{
	TagReads:   "Reads",
	TagTweets:  "Tweets",
	TagMedia:   "Media",
	TagNews:    "News",
	TagPodcast: "Podcast",
	TagOther:   "Other",
}

var sectorLabels = map[Sector]string{
	SectorGeneral:        "General",
	SectorFinance:        "Finance",
	SectorInfrastructure: "Infrastructure",
	SectorMacroMarkets:   "Macro & Markets",
	SectorMetaverse:      "Metaverse",
}

// defaultTagByHost maps well-known hostnames to the tag a link from that
// host most likely deserves. Consulted once, when a link is first set.
var defaultTagByHost = map[string]Tag{
	"x.com":              TagTweets,
	"twitter.com":        TagTweets,
	"youtube.com":        TagMedia,
	"youtu.be":           TagMedia,
	"open.spotify.com":   TagPodcast,
	"podcasts.apple.com": TagPodcast,
	"bloomberg.com":      TagNews,
	"reuters.com":        TagNews,
	"ft.com":             TagNews,
	"wsj.com":            TagNews,
}

// Label returns the human-readable form of a tag, falling back to the slug.
func (t Tag) Label() string {
	if l, ok := tagLabels[t]; ok {
		return l
	}
	return string(t)
}

// Label returns the human-readable form of a sector, falling back to the slug.
func (s Sector) Label() string {
	if l, ok := sectorLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseTag validates a tag slug against the closed set.
func ParseTag(slug string) (Tag, bool) {
	t := Tag(strings.ToLower(strings.TrimSpace(slug)))
	_, ok := tagLabels[t]
	return t, ok
}

// ParseSector validates a sector slug against the closed set.
func ParseSector(slug string) (Sector, bool) {
	s := Sector(strings.ToLower(strings.TrimSpace(slug)))
	_, ok := sectorLabels[s]
	return s, ok
}

// DefaultTagForLink returns the default tag for a normalized link based on
// its hostname. The second return is false when the host is unknown.
func DefaultTagForLink(link string) (Tag, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	t, ok := defaultTagByHost[host]
	return t, ok
}

// Draft is the in-progress item a conversation is building. Empty string
// means the field is unset; Sector and Tag hold zero or one value.
type Draft struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Sector      Sector
	Tag         Tag
}

// Item is a published reads-list entry.
type Item struct {
	ID          string
	Link        string
	Title       string
	Description string
	ImageURL    string
	Sector      Sector
	Tag         Tag
	SubmittedBy string
	CreatedAt   time.Time
}

// LinkPreview is the structured metadata a preview service returns for a link.
type LinkPreview struct {
	Title       string
	Description string
	ImageURL    string
}
