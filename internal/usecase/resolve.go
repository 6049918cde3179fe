package usecase

import (
	"context"

	"reads-agent/internal/domain"
)

// resolveLink turns a normalized link into preview data, trying the metadata
// service first and falling back to an AI-generated summary. The chain is
// ordered: the summary is only consulted when the metadata fetch fails, and
// a duplicate hit short-circuits everything.
func (s *Service) resolveLink(ctx context.Context, link string) (domain.LinkPreview, *Error) {
	prev, err := s.preview.Fetch(ctx, link)
	if err == nil {
		if s.isDuplicate(ctx, link) {
			return domain.LinkPreview{}, newError(ErrorDuplicateLink, "link_already_listed", nil)
		}
		prev.Description = TruncateDescription(prev.Description)
		return prev, nil
	}

	summary, sumErr := s.summarizer.Summarize(ctx, link)
	if sumErr != nil {
		return domain.LinkPreview{}, newError(ErrorUnresolvedURL, "summary_fallback_failed", sumErr)
	}
	return domain.LinkPreview{Description: TruncateDescription(summary)}, nil
}

// isDuplicate checks the candidate link against the most recent page of the
// list. Only recent items are checked, a deliberate cost trade-off; the
// storage backend re-checks at publish time. A failed read counts as not a
// duplicate for the same reason.
func (s *Service) isDuplicate(ctx context.Context, link string) bool {
	links, err := s.list.RecentLinks(ctx, s.duplicateCheckLimit)
	if err != nil {
		return false
	}
	for _, l := range links {
		if l == link {
			return true
		}
	}
	return false
}
