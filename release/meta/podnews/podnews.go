// Package podnews scrapes Apple Podcasts ratings from Podnews pages.
package podnews

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/castforge-project/castforge/release/meta"
	"github.com/erni27/imcache"
	"github.com/go-faster/errors"
)

// DefaultURL is the default Podnews base URL.
const DefaultURL = "https://podnews.net"

// Source is a Podnews-backed rating source.
type Source struct {
	client *http.Client
	url    string
	exp    imcache.Expiration

	cache imcache.Cache[string, *meta.PodnewsBlock]
}

// NewSource creates a Podnews rating source.
func NewSource(client *http.Client, baseURL string, cacheExp imcache.Expiration) *Source {
	return &Source{client: client, url: baseURL, exp: cacheExp}
}

// Lookup searches Podnews for a podcast page and scrapes its Apple rating,
// returns nil when nothing matches.
func (s *Source) Lookup(ctx context.Context, term string) (*meta.PodnewsBlock, error) {
	if block, ok := s.cache.Get(term); ok {
		return block, nil
	}

	results, err := s.fetch(ctx, s.url+"/search?q="+url.QueryEscape(term))
	if err != nil {
		return nil, errors.Wrap(err, "failed to search podcasts")
	}

	href, ok := results.Find(`a[href^="/podcast/"]`).First().Attr("href")
	if !ok {
		s.cache.Set(term, nil, s.exp)
		return nil, nil
	}

	pageURL := s.url + href
	page, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch podcast page")
	}

	block := &meta.PodnewsBlock{URL: pageURL}
	if rating, err := strconv.ParseFloat(itemProp(page, "ratingValue"), 64); err == nil {
		block.AppleRating = &rating
	}
	if count, err := strconv.Atoi(itemProp(page, "ratingCount")); err == nil {
		block.AppleRatingCount = count
	}

	s.cache.Set(term, block, s.exp)
	return block, nil
}

func (s *Source) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected response status %s", res.Status)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

// itemProp reads a schema.org property, preferring the content attribute
// over the element text.
func itemProp(doc *goquery.Document, name string) string {
	sel := doc.Find(`[itemprop="` + name + `"]`).First()

	return strings.TrimSpace(sel.AttrOr("content", sel.Text()))
}
