package podchaser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/erni27/imcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponseDoc = `{
	"data": {
		"podcasts": {
			"data": [{
				"title": "Example Cast",
				"description": "A show about examples.",
				"htmlDescription": "<p>A show about examples.</p>",
				"author": {"name": "Example Productions"},
				"webUrl": "https://example.com",
				"rssUrl": "https://example.com/feed.xml",
				"spotifyId": "abc123",
				"applePodcastsId": "456",
				"url": "https://www.podchaser.com/podcasts/example-cast-1",
				"ratingAverage": 4.5,
				"ratingCount": 17,
				"status": "ACTIVE",
				"categories": [{"title": "True Crime"}, {"title": "History"}]
			}]
		}
	}
}`

func TestLookup(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer t0ken", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(searchResponseDoc))
	}))
	defer srv.Close()

	source := NewSource(srv.Client(), srv.URL, "t0ken", imcache.WithNoExpiration())

	block, err := source.Lookup(context.Background(), "Example Cast")
	require.NoError(t, err)
	require.NotNil(t, block)

	assert.Equal(t, "Example Cast", block.Title)
	assert.Equal(t, "Example Productions", block.Author)
	assert.Equal(t, "An", block.AuthorArticle)
	assert.Equal(t, "https://example.com/feed.xml", block.RSSURL)
	require.NotNil(t, block.RatingAverage)
	assert.Equal(t, 4.5, *block.RatingAverage)
	assert.Equal(t, 17, block.RatingCount)
	assert.True(t, block.Active())
	assert.Equal(t, []string{"True Crime", "History"}, block.Categories)

	// served from cache
	_, err = source.Lookup(context.Background(), "Example Cast")
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestLookupNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"podcasts": {"data": []}}}`))
	}))
	defer srv.Close()

	source := NewSource(srv.Client(), srv.URL, "t0ken", imcache.WithNoExpiration())

	block, err := source.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestLookupGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "Unauthenticated."}]}`))
	}))
	defer srv.Close()

	source := NewSource(srv.Client(), srv.URL, "bad", imcache.WithNoExpiration())

	_, err := source.Lookup(context.Background(), "Example Cast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthenticated")
}
