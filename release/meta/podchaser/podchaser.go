// Package podchaser resolves podcast metadata from the Podchaser GraphQL API.
package podchaser

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/castforge-project/castforge/release/meta"
	"github.com/erni27/imcache"
	"github.com/go-faster/errors"
)

// DefaultURL is the default Podchaser GraphQL endpoint.
const DefaultURL = "https://api.podchaser.com/graphql"

// searchQuery selects the podcast fields a release description needs.
const searchQuery = `query Search($searchTerm: String!) {
  podcasts(searchTerm: $searchTerm, first: 1) {
    data {
      title
      description
      htmlDescription: description(format: HTML)
      author { name }
      networkTitle
      webUrl
      rssUrl
      spotifyId
      applePodcastsId
      url
      ratingAverage
      ratingCount
      status
      categories { title }
    }
  }
}`

// Source is a Podchaser-backed metadata source.
type Source struct {
	client *http.Client
	url    string
	token  string
	exp    imcache.Expiration

	cache imcache.Cache[string, *meta.PodchaserBlock]
}

// NewSource creates a Podchaser metadata source.
func NewSource(client *http.Client, url, token string, cacheExp imcache.Expiration) *Source {
	return &Source{client: client, url: url, token: token, exp: cacheExp}
}

type searchRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type searchResponse struct {
	Data struct {
		Podcasts struct {
			Data []podcast `json:"data"`
		} `json:"podcasts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type podcast struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	HTMLDescription string `json:"htmlDescription"`
	Author          *struct {
		Name string `json:"name"`
	} `json:"author"`
	NetworkTitle    string   `json:"networkTitle"`
	WebURL          string   `json:"webUrl"`
	RSSURL          string   `json:"rssUrl"`
	SpotifyID       string   `json:"spotifyId"`
	ApplePodcastsID string   `json:"applePodcastsId"`
	URL             string   `json:"url"`
	RatingAverage   *float64 `json:"ratingAverage"`
	RatingCount     int      `json:"ratingCount"`
	Status          string   `json:"status"`
	Categories      []struct {
		Title string `json:"title"`
	} `json:"categories"`
}

// Lookup searches Podchaser for a podcast, returns nil when nothing matches.
func (s *Source) Lookup(ctx context.Context, term string) (*meta.PodchaserBlock, error) {
	if block, ok := s.cache.Get(term); ok {
		return block, nil
	}

	body, err := json.Marshal(&searchRequest{
		Query:     searchQuery,
		Variables: map[string]string{"searchTerm": term},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

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
	if len(parsed.Errors) > 0 {
		return nil, errors.Errorf("search errored: %s", parsed.Errors[0].Message)
	}

	block := makeBlock(parsed.Data.Podcasts.Data)
	s.cache.Set(term, block, s.exp)

	return block, nil
}

func makeBlock(podcasts []podcast) *meta.PodchaserBlock {
	if len(podcasts) == 0 {
		return nil
	}

	p := podcasts[0]
	block := &meta.PodchaserBlock{
		Title:           p.Title,
		Description:     p.Description,
		HTMLDescription: p.HTMLDescription,
		NetworkTitle:    p.NetworkTitle,
		WebURL:          p.WebURL,
		RSSURL:          p.RSSURL,
		SpotifyID:       p.SpotifyID,
		ApplePodcastsID: p.ApplePodcastsID,
		URL:             p.URL,
		RatingAverage:   p.RatingAverage,
		RatingCount:     p.RatingCount,
		Status:          p.Status,
	}
	if p.Author != nil {
		block.Author = p.Author.Name
		block.AuthorArticle = meta.Article(p.Author.Name)
	}
	for _, category := range p.Categories {
		block.Categories = append(block.Categories, category.Title)
	}

	return block
}
