package rss

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const feedDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Example Show</title>
    <description>A show about examples.</description>
    <link>https://example.com</link>
    <language>en-us</language>
    <atom:link href="https://example.com/feed.xml" rel="self" type="application/rss+xml"/>
    <image>
      <url>https://example.com/cover.jpg</url>
      <title>Example Show</title>
      <link>https://example.com</link>
    </image>
    <category>Technology</category>
    <itunes:explicit>yes</itunes:explicit>
    <itunes:category text="Technology">
      <itunes:category text="Tech News"/>
    </itunes:category>
    <item>
      <title>Pilot</title>
      <pubDate>Sat, 05 Jan 2019 00:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestParse(t *testing.T) {
	feed, err := Parse(strings.NewReader(feedDoc))
	require.NoError(t, err)

	assert.Equal(t, "Example Show", feed.Title)
	assert.Equal(t, "A show about examples.", feed.Description)
	assert.Equal(t, "https://example.com", feed.Link)
	assert.Equal(t, "https://example.com/feed.xml", feed.FeedURL)
	assert.Equal(t, "https://example.com/cover.jpg", feed.Image)
	assert.True(t, feed.Explicit)

	tag, err := language.Parse("en-us")
	require.NoError(t, err)
	assert.Equal(t, tag, feed.Language)

	// channel category and iTunes categories deduplicated, order preserved
	assert.Equal(t, []string{"Technology", "Tech News"}, feed.Categories)
}

func TestFeed_Tags(t *testing.T) {
	feed := &Feed{
		Categories: []string{"Technology", "Tech News"},
		Explicit:   true,
	}
	assert.Equal(t, "technology, tech news, explicit", feed.Tags())

	assert.Empty(t, (&Feed{}).Tags())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("not a feed"))
	assert.Error(t, err)
}
