package meta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func TestResolve_GenericIdentity(t *testing.T) {
	v, err := Resolve(&Bundle{
		Name:        "Some Show",
		Tags:        "comedy, improv",
		Description: "A show about nothing.",
		Links:       "[url=https://example.com]Website[/url]",
	})
	require.NoError(t, err)

	assert.Equal(t, "Some Show", v.Title)
	assert.Equal(t, "A show about nothing.", v.Description)
	assert.Empty(t, v.Banners)
	assert.Equal(t, "comedy, improv", v.Tags)
	assert.Equal(t, "[url=https://example.com]Website[/url]", v.RawLinks)
	assert.Empty(t, v.Links)
	assert.Empty(t, v.Ratings)
}

func TestResolve_PodchaserPrecedence(t *testing.T) {
	v, err := Resolve(&Bundle{
		Podchaser: &PodchaserBlock{
			Title:         "Chaser Title",
			Description:   "Chaser description.",
			Author:        "Example Author",
			AuthorArticle: "An",
			NetworkTitle:  "Example Network",
			WebURL:        "https://example.com",
			RatingAverage: float64Ptr(4.5),
			RatingCount:   3,
			Categories:    []string{"True Crime", "Comedy"},
		},
		Index: &IndexBlock{
			Title:       "Index Title",
			Description: "Index description.",
			Author:      "Other Author",
			Link:        "https://other.example.com",
			ID:          920666,
			Categories:  []string{"News"},
		},
		Name: "Generic Title",
	})
	require.NoError(t, err)

	assert.Equal(t, "Chaser Title", v.Title)
	assert.Equal(t, "Chaser description.", v.Description)
	assert.Equal(t, []string{"EXAMPLE NETWORK", "AN EXAMPLE AUTHOR PRODUCTION"}, v.Banners)
	assert.Equal(t, "true.crime, comedy", v.Tags)

	require.Len(t, v.Ratings, 1)
	assert.Equal(t, "Podchaser Rating", v.Ratings[0].Label)
	assert.Equal(t, "4.5", v.Ratings[0].Value)
	assert.Equal(t, "3 votes", v.Ratings[0].Votes)

	// the Podcast Index page link is merged in additively, the rest of the
	// Index block is not consulted
	require.Len(t, v.Links, 2)
	assert.Equal(t, Link{Label: "Website", URL: "https://example.com"}, v.Links[0])
	assert.Equal(t, Link{Label: "Podcastindex.org", URL: "https://podcastindex.org/podcast/920666"}, v.Links[1])
}

func TestResolve_IndexIdentity(t *testing.T) {
	v, err := Resolve(&Bundle{
		Index: &IndexBlock{
			Title:         "Index Title",
			Description:   "Index description.",
			Author:        "Acme Media",
			AuthorArticle: "An",
			Link:          "https://example.com",
			URL:           "https://podcastindex.org/podcast/920666",
			ITunesID:      123456,
			ID:            920666,
			Categories:    []string{"News", "Tech News"},
		},
		Podnews: &PodnewsBlock{URL: "https://podnews.net/podcast/abcde"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Index Title", v.Title)
	assert.Equal(t, []string{"AN ACME MEDIA PRODUCTION"}, v.Banners)
	assert.Equal(t, "news, tech.news", v.Tags)

	// the additive Podcastindex.org slot is skipped, the identity's own page
	// link already points there
	require.Len(t, v.Links, 4)
	assert.Equal(t, "Website", v.Links[0].Label)
	assert.Equal(t, Link{Label: "Apple Podcasts", URL: "https://podcasts.apple.com/us/podcast/id123456"}, v.Links[1])
	assert.Equal(t, Link{Label: "Podcast Index", URL: "https://podcastindex.org/podcast/920666"}, v.Links[2])
	assert.Equal(t, "Podnews", v.Links[3].Label)
}

func TestResolve_PodchaserLinkOrder(t *testing.T) {
	v, err := Resolve(&Bundle{
		Podchaser: &PodchaserBlock{
			Title:           "Chaser Title",
			WebURL:          "https://example.com",
			RSSURL:          "https://example.com/feed.xml",
			SpotifyID:       "5as3aKmN2k11L32Kutk3s9",
			ApplePodcastsID: "1200361736",
			URL:             "https://www.podchaser.com/podcasts/example-42",
		},
		Podnews: &PodnewsBlock{URL: "https://podnews.net/podcast/abcde"},
	})
	require.NoError(t, err)

	labels := make([]string, len(v.Links))
	for i, l := range v.Links {
		labels[i] = l.Label
	}
	assert.Equal(t, []string{"Website", "RSS Feed", "Spotify", "Apple Podcasts", "Podchaser", "Podnews"}, labels)
	assert.Equal(t, "https://open.spotify.com/show/5as3aKmN2k11L32Kutk3s9", v.Links[2].URL)
	assert.Equal(t, "https://podcasts.apple.com/us/podcast/id1200361736", v.Links[3].URL)
}

func TestResolve_DescriptionPrefersFormatted(t *testing.T) {
	v, err := Resolve(&Bundle{
		Podchaser: &PodchaserBlock{
			Title:           "Chaser Title",
			Description:     "plain",
			HTMLDescription: "<p>formatted</p>",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>formatted</p>", v.Description)
}

func TestResolve_Ratings(t *testing.T) {
	t.Run("BothSources", func(t *testing.T) {
		v, err := Resolve(&Bundle{
			Podchaser: &PodchaserBlock{
				Title:         "Chaser Title",
				RatingAverage: float64Ptr(4),
				RatingCount:   1,
			},
			Podnews: &PodnewsBlock{
				AppleRating:      float64Ptr(4.8),
				AppleRatingCount: 230,
			},
		})
		require.NoError(t, err)

		require.Len(t, v.Ratings, 2)
		assert.Equal(t, Rating{Label: "Podchaser Rating", Value: "4", Votes: "1 vote"}, v.Ratings[0])
		assert.Equal(t, Rating{Label: "Apple Podcasts Rating", Value: "4.8", Votes: "230 votes"}, v.Ratings[1])
	})

	t.Run("AppleCountDefaultsToOne", func(t *testing.T) {
		v, err := Resolve(&Bundle{
			Podnews: &PodnewsBlock{AppleRating: float64Ptr(3.5)},
		})
		require.NoError(t, err)

		require.Len(t, v.Ratings, 1)
		assert.Equal(t, "1 vote", v.Ratings[0].Votes)
	})

	t.Run("NoPodchaserRatingWhenNotIdentity", func(t *testing.T) {
		// a rating-capable block losing the identity race contributes nothing
		v, err := Resolve(&Bundle{
			Index: &IndexBlock{Title: "Index Title"},
		})
		require.NoError(t, err)
		assert.Empty(t, v.Ratings)
	})

	t.Run("UnratedPodchaser", func(t *testing.T) {
		v, err := Resolve(&Bundle{
			Podchaser: &PodchaserBlock{Title: "Chaser Title", RatingCount: 12},
		})
		require.NoError(t, err)
		assert.Empty(t, v.Ratings)
	})
}

func TestResolve_Dates(t *testing.T) {
	t.Run("Collapsed", func(t *testing.T) {
		v, err := Resolve(&Bundle{
			FirstEpisodeDate: "2021-06-01",
			LastEpisodeDate:  "2021-06-01",
		})
		require.NoError(t, err)
		assert.Equal(t, []LabeledValue{{Label: "Date", Value: "2021-06-01"}}, v.Dates)
	})

	t.Run("FullRunOfCompletedShow", func(t *testing.T) {
		v, err := Resolve(&Bundle{
			FirstEpisodeDate:     "2010-01-02",
			LastEpisodeDate:      "2020-03-04",
			TrueFirstEpisodeDate: "2010-01-02",
			Completed:            true,
		})
		require.NoError(t, err)
		assert.Equal(t, []LabeledValue{
			{Label: "Start Date", Value: "2010-01-02"},
			{Label: "End Date", Value: "2020-03-04"},
		}, v.Dates)
	})

	t.Run("PartialRunOfActiveShow", func(t *testing.T) {
		v, err := Resolve(&Bundle{
			FirstEpisodeDate:     "2015-05-05",
			LastEpisodeDate:      "2020-03-04",
			TrueFirstEpisodeDate: "2010-01-02",
		})
		require.NoError(t, err)
		assert.Equal(t, []LabeledValue{
			{Label: "First Included Episode", Value: "2015-05-05"},
			{Label: "Last Included Episode", Value: "2020-03-04"},
		}, v.Dates)
	})

	t.Run("NoFirstDate", func(t *testing.T) {
		v, err := Resolve(&Bundle{LastEpisodeDate: "2020-03-04"})
		require.NoError(t, err)
		assert.Equal(t, []LabeledValue{{Label: "Last Included Episode", Value: "2020-03-04"}}, v.Dates)
	})

	t.Run("Absent", func(t *testing.T) {
		v, err := Resolve(&Bundle{})
		require.NoError(t, err)
		assert.Empty(t, v.Dates)
	})
}

func TestResolve_AverageDuration(t *testing.T) {
	v, err := Resolve(&Bundle{AverageDurationSeconds: 125})
	require.NoError(t, err)
	assert.Equal(t, "2 mins", v.AverageDuration)

	v, err = Resolve(&Bundle{})
	require.NoError(t, err)
	assert.Empty(t, v.AverageDuration)
}

func TestResolve_InvalidFields(t *testing.T) {
	cases := []struct {
		name   string
		bundle *Bundle
		field  string
	}{
		{"NaNDuration", &Bundle{AverageDurationSeconds: math.NaN()}, "average_duration_seconds"},
		{"NegativeDuration", &Bundle{AverageDurationSeconds: -1}, "average_duration_seconds"},
		{"NegativeFiles", &Bundle{NumberOfFiles: -5}, "number_of_files"},
		{
			"NegativeRating",
			&Bundle{Podchaser: &PodchaserBlock{RatingAverage: float64Ptr(-0.5)}},
			"podchaser.rating_average",
		},
		{
			"NegativeAppleCount",
			&Bundle{Podnews: &PodnewsBlock{AppleRating: float64Ptr(4), AppleRatingCount: -1}},
			"podnews.apple_rating_count",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Resolve(c.bundle)

			var fieldErr *ErrInvalidField
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, c.field, fieldErr.Field)
		})
	}
}

func TestArticle(t *testing.T) {
	assert.Equal(t, "An", Article("Audacy"))
	assert.Equal(t, "An", Article("iHeart"))
	assert.Equal(t, "A", Article("Wondery"))
	assert.Equal(t, "", Article(""))
}
