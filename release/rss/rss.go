// Package rss extracts podcast channel metadata from a local feed file.
package rss

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/language"
)

// Feed is the subset of channel metadata consumed from a podcast feed.
type Feed struct {
	// Title is the channel title.
	Title string
	// Description is the channel description.
	Description string
	// Link is the channel's website URL.
	Link string
	// FeedURL is the channel's own feed URL, empty when the feed does not state it.
	FeedURL string
	// Image is the channel image URL.
	Image string
	// Language is the channel language, language.Und when absent or unparsable.
	Language language.Tag
	// Categories are the channel and iTunes categories, first-seen order, deduplicated.
	Categories []string
	// Explicit reports the iTunes explicit flag.
	Explicit bool
}

// ParseFile reads and parses a feed file from disk.
func ParseFile(path string) (*Feed, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open feed file")
	}
	defer f.Close()

	return Parse(f)
}

// Parse parses a feed document.
func Parse(r io.Reader) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse feed")
	}

	feed := &Feed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.Link,
		FeedURL:     parsed.FeedLink,
		Language:    language.Und,
	}
	if parsed.Image != nil {
		feed.Image = parsed.Image.URL
	}
	if parsed.Language != "" {
		if tag, err := language.Parse(parsed.Language); err == nil {
			feed.Language = tag
		}
	}

	seen := make(map[string]struct{})
	addCategory := func(category string) {
		category = strings.TrimSpace(category)
		if category == "" {
			return
		}
		if _, ok := seen[strings.ToLower(category)]; ok {
			return
		}

		seen[strings.ToLower(category)] = struct{}{}
		feed.Categories = append(feed.Categories, category)
	}
	for _, category := range parsed.Categories {
		addCategory(category)
	}
	if itunes := parsed.ITunesExt; itunes != nil {
		for _, category := range itunes.Categories {
			addCategory(category.Text)
			if category.Subcategory != nil {
				addCategory(category.Subcategory.Text)
			}
		}

		feed.Explicit = strings.EqualFold(itunes.Explicit, "yes") || strings.EqualFold(itunes.Explicit, "true")
	}

	return feed, nil
}

// Tags returns the caller-facing tag string: lower-cased categories with
// "explicit" appended when flagged.
func (f *Feed) Tags() string {
	tags := make([]string, 0, len(f.Categories)+1)
	for _, category := range f.Categories {
		tags = append(tags, strings.ToLower(category))
	}
	if f.Explicit {
		tags = append(tags, "explicit")
	}

	return strings.Join(tags, ", ")
}
