package meta

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Bundle is the complete input of a single description rendering pass.
// It is assembled fresh per call from already-fetched catalog data and
// already-formatted date strings, and is treated as immutable while resolving.
type Bundle struct {
	// Podchaser is the Podchaser catalog block, nil if the lookup found nothing.
	Podchaser *PodchaserBlock `json:"podchaser,omitempty"`
	// Index is the Podcast Index catalog block, nil if the lookup found nothing.
	Index *IndexBlock `json:"index,omitempty"`
	// Podnews is the Podnews rating block, nil if the lookup found nothing.
	Podnews *PodnewsBlock `json:"podnews,omitempty"`

	// Name is the caller-supplied podcast name, used when no catalog block is present.
	Name string `json:"name,omitempty"`
	// Tags is the caller-supplied raw tag string, used when no catalog supplies categories.
	Tags string `json:"tags,omitempty"`
	// Description is the caller-supplied description, used when no catalog block is present.
	Description string `json:"description,omitempty"`
	// Links is the caller-supplied pre-built link line, used when no catalog block is present.
	Links string `json:"links,omitempty"`

	// FileFormat is the release-wide file format, such as "MP3", or "Mixed".
	FileFormat string `json:"file_format,omitempty"`
	// OverallBitrate is the release-wide bitrate, such as "128 kbps", "VBR" or "Mixed".
	OverallBitrate string `json:"overall_bitrate,omitempty"`
	// NumberOfFiles is the episode file count, 0 means unknown.
	NumberOfFiles int `json:"number_of_files,omitempty"`
	// AverageDurationSeconds is the mean episode duration, 0 means unknown.
	AverageDurationSeconds float64 `json:"average_duration_seconds,omitempty"`

	// BitrateBreakdown is the pre-rendered bitrate-per-file-count table, empty if the release is uniform.
	BitrateBreakdown string `json:"bitrate_breakdown,omitempty"`
	// BitrateOutliers are the file names that fall outside the most common bitrate.
	BitrateOutliers []string `json:"bitrate_outliers,omitempty"`
	// FormatBreakdown is the pre-rendered format-per-file-count table, empty if the release is uniform.
	FormatBreakdown string `json:"format_breakdown,omitempty"`
	// FormatOutliers are the file names that fall outside the most common file format.
	FormatOutliers []string `json:"format_outliers,omitempty"`

	// FirstEpisodeDate is the formatted date of the earliest episode in the release.
	FirstEpisodeDate string `json:"first_episode_date,omitempty"`
	// LastEpisodeDate is the formatted date of the latest episode in the release.
	LastEpisodeDate string `json:"last_episode_date,omitempty"`
	// TrueFirstEpisodeDate is the formatted date of the earliest episode known to exist,
	// which may predate the earliest episode included in the release.
	TrueFirstEpisodeDate string `json:"true_first_episode_date,omitempty"`
	// Completed reports whether the podcast has stopped releasing episodes.
	Completed bool `json:"completed,omitempty"`
}

// PodchaserBlock is the podcast data selected from the Podchaser catalog.
type PodchaserBlock struct {
	// Title is the podcast title.
	Title string `json:"title,omitempty"`
	// Description is the plain-text podcast description.
	Description string `json:"description,omitempty"`
	// HTMLDescription is the pre-formatted podcast description, preferred over Description.
	HTMLDescription string `json:"html_description,omitempty"`
	// Author is the author name.
	Author string `json:"author,omitempty"`
	// AuthorArticle is the indefinite article preceding Author in the production banner.
	AuthorArticle string `json:"author_article,omitempty"`
	// NetworkTitle is the owning network's title, empty for independent podcasts.
	NetworkTitle string `json:"network_title,omitempty"`

	// WebURL is the podcast's official website URL.
	WebURL string `json:"web_url,omitempty"`
	// RSSURL is the podcast's feed URL.
	RSSURL string `json:"rss_url,omitempty"`
	// SpotifyID is the podcast's Spotify show ID.
	SpotifyID string `json:"spotify_id,omitempty"`
	// ApplePodcastsID is the podcast's Apple Podcasts ID.
	ApplePodcastsID string `json:"apple_podcasts_id,omitempty"`
	// URL is the podcast's Podchaser page URL.
	URL string `json:"url,omitempty"`

	// RatingAverage is the Podchaser rating, nil when the podcast is unrated.
	RatingAverage *float64 `json:"rating_average,omitempty"`
	// RatingCount is the number of Podchaser ratings.
	RatingCount int `json:"rating_count,omitempty"`

	// Status is the lifecycle status, StatusActive while episodes are still being released.
	Status string `json:"status,omitempty"`
	// Categories are the category titles.
	Categories []string `json:"categories,omitempty"`
}

// StatusActive is the PodchaserBlock.Status value of a podcast that is still releasing episodes.
const StatusActive = "ACTIVE"

// Active reports whether the podcast is still releasing episodes.
func (pc *PodchaserBlock) Active() bool {
	return pc.Status == "" || pc.Status == StatusActive
}

// IndexBlock is the podcast data selected from the Podcast Index catalog.
type IndexBlock struct {
	// Title is the podcast title.
	Title string `json:"title,omitempty"`
	// Description is the podcast description.
	Description string `json:"description,omitempty"`
	// Author is the author name.
	Author string `json:"author,omitempty"`
	// AuthorArticle is the indefinite article preceding Author in the production banner.
	AuthorArticle string `json:"author_article,omitempty"`

	// Link is the podcast's official website URL.
	Link string `json:"link,omitempty"`
	// URL is the podcast's Podcast Index page URL.
	URL string `json:"url,omitempty"`
	// ITunesID is the podcast's Apple Podcasts ID, 0 when unknown.
	ITunesID int64 `json:"itunes_id,omitempty"`
	// ID is the podcast's Podcast Index feed ID, 0 when unknown.
	ID int64 `json:"id,omitempty"`

	// Categories are the category names, keyed order discarded upstream.
	Categories []string `json:"categories,omitempty"`
}

// PodnewsBlock is the third-party rating data scraped from Podnews.
type PodnewsBlock struct {
	// AppleRating is the Apple Podcasts rating relayed by Podnews, nil when unrated.
	AppleRating *float64 `json:"apple_rating,omitempty"`
	// AppleRatingCount is the number of Apple Podcasts ratings, 0 when unknown.
	AppleRatingCount int `json:"apple_rating_count,omitempty"`
	// URL is the podcast's Podnews page URL.
	URL string `json:"url,omitempty"`
}

// Article returns the indefinite article for a name, "An" before a vowel.
// Example: "Audacy" -> "An", "Wondery" -> "A"
func Article(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u':
		return "An"
	case utf8.RuneError:
		return ""
	}

	return "A"
}
