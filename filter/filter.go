package filter

import (
	"fmt"

	"directory-scraper/models"

	"github.com/gobwas/glob"
)

// Reason explains why a link was rejected
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonEmptyText Reason = "empty text"
	ReasonEmptyURL  Reason = "empty url"
	ReasonExcluded  Reason = "excluded"
)

// LinkFilter decides which listing links are worth visiting
type LinkFilter struct {
	exclude []glob.Glob
}

// NewLinkFilter creates a LinkFilter rejecting hrefs that match any of the
// glob patterns, e.g. "mailto:*" or "*/ads/*"
func NewLinkFilter(patterns []string) (*LinkFilter, error) {
	f := &LinkFilter{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// Check reports why link must be skipped, or ReasonNone to visit it
func (f *LinkFilter) Check(link models.Link) Reason {
	if link.Text == "" {
		return ReasonEmptyText
	}
	if link.URL == "" {
		return ReasonEmptyURL
	}
	for _, g := range f.exclude {
		if g.Match(link.URL) {
			return ReasonExcluded
		}
	}
	return ReasonNone
}
