// Package podcastindex resolves podcast metadata from the Podcast Index API.
package podcastindex

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/castforge-project/castforge/release/meta"
	"github.com/erni27/imcache"
	"github.com/go-faster/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultURL is the default Podcast Index API base URL.
const DefaultURL = "https://api.podcastindex.org/api/1.0"

// userAgent identifies the client, required by the Podcast Index API.
const userAgent = "castforge"

// Source is a Podcast-Index-backed metadata source.
type Source struct {
	client *http.Client
	url    string
	key    string
	secret string
	exp    imcache.Expiration
	now    func() time.Time

	cache imcache.Cache[string, *meta.IndexBlock]
}

// NewSource creates a Podcast Index metadata source.
func NewSource(client *http.Client, apiURL, key, secret string, cacheExp imcache.Expiration) *Source {
	return &Source{
		client: client,
		url:    apiURL,
		key:    key,
		secret: secret,
		exp:    cacheExp,
		now:    time.Now,
	}
}

type searchResponse struct {
	Feeds []feed `json:"feeds"`
}

type feed struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Author      string            `json:"author"`
	Link        string            `json:"link"`
	ITunesID    int64             `json:"itunesId"`
	Categories  map[string]string `json:"categories"`
}

// Lookup searches Podcast Index for a podcast, returns nil when nothing matches.
func (s *Source) Lookup(ctx context.Context, term string) (*meta.IndexBlock, error) {
	if block, ok := s.cache.Get(term); ok {
		return block, nil
	}

	query := url.Values{"q": {term}, "max": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/search/byterm?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create search request")
	}
	s.authorize(req)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search podcasts")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected search response status %s", res.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal search response")
	}

	block := makeBlock(parsed.Feeds)
	s.cache.Set(term, block, s.exp)

	return block, nil
}

// authorize sets the Podcast Index auth headers:
// the Authorization value is sha1(key + secret + unix time).
func (s *Source) authorize(req *http.Request) {
	authDate := strconv.FormatInt(s.now().Unix(), 10)
	hash := sha1.Sum([]byte(s.key + s.secret + authDate))

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Auth-Key", s.key)
	req.Header.Set("X-Auth-Date", authDate)
	req.Header.Set("Authorization", hex.EncodeToString(hash[:]))
}

func makeBlock(feeds []feed) *meta.IndexBlock {
	if len(feeds) == 0 {
		return nil
	}

	f := feeds[0]
	block := &meta.IndexBlock{
		Title:         f.Title,
		Description:   f.Description,
		Author:        f.Author,
		AuthorArticle: meta.Article(f.Author),
		Link:          f.Link,
		ITunesID:      f.ITunesID,
		ID:            f.ID,
	}
	if f.ID != 0 {
		block.URL = fmt.Sprintf("https://podcastindex.org/podcast/%d", f.ID)
	}
	if len(f.Categories) > 0 {
		// category keys are catalog-internal IDs, only the values matter
		block.Categories = maps.Values(f.Categories)
		slices.Sort(block.Categories)
	}

	return block
}
