package meta

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// View is the render-ready projection of a Bundle: per logical section,
// exactly one source has been chosen and its fields flattened out.
type View struct {
	// Banners are the upper-cased network/production banner lines, at most two.
	Banners []string
	// Title is the podcast title.
	Title string
	// Description is the podcast description, may contain markup.
	Description string
	// Links are the constructed links in their fixed order, empty when RawLinks is used.
	Links []Link
	// RawLinks is the caller-supplied pre-built link line of the generic source.
	RawLinks string
	// Tags is the comma-joined tag string.
	Tags string

	// FileFormat is the release-wide file format.
	FileFormat string
	// OverallBitrate is the release-wide bitrate.
	OverallBitrate string
	// NumberOfFiles is the episode file count, 0 means unknown.
	NumberOfFiles int
	// AverageDuration is the formatted mean episode duration, such as "62 mins".
	AverageDuration string

	// Dates are the labeled date parts, at most two.
	Dates []LabeledValue
	// Ratings are the rating lines, at most two.
	Ratings []Rating

	// BitrateBreakdown is the bitrate-per-file-count table, empty if uniform.
	BitrateBreakdown string
	// BitrateOutliers are the files outside the most common bitrate.
	BitrateOutliers []string
	// FormatBreakdown is the format-per-file-count table, empty if uniform.
	FormatBreakdown string
	// FormatOutliers are the files outside the most common file format.
	FormatOutliers []string
}

// Link is one labeled link of the link line.
type Link struct {
	// Label is the display text.
	Label string
	// URL is the link target.
	URL string
}

// LabeledValue is one labeled fragment of the date line.
type LabeledValue struct {
	// Label is the fragment label, such as "Start Date".
	Label string
	// Value is the fragment value.
	Value string
}

// Rating is one rating fragment of the rating line.
type Rating struct {
	// Label is the rating source label, such as "Podchaser Rating".
	Label string
	// Value is the formatted rating value, such as "4.5".
	Value string
	// Votes is the formatted vote count, such as "1 vote" or "23 votes".
	Votes string
}

// Resolve picks the authoritative source per logical section of the bundle
// and flattens it into a View. It is pure and total over field presence;
// the only error is ErrInvalidField for malformed numeric input.
func Resolve(b *Bundle) (*View, error) {
	if err := validate(b); err != nil {
		return nil, err
	}

	v := &View{
		FileFormat:       b.FileFormat,
		OverallBitrate:   b.OverallBitrate,
		NumberOfFiles:    b.NumberOfFiles,
		BitrateBreakdown: b.BitrateBreakdown,
		BitrateOutliers:  b.BitrateOutliers,
		FormatBreakdown:  b.FormatBreakdown,
		FormatOutliers:   b.FormatOutliers,
	}

	ident := resolveIdentity(b)
	v.Title = ident.title()
	v.Description = ident.description()
	v.Banners = ident.banners()
	v.Tags = resolveTags(b)
	resolveLinks(b, ident, v)
	v.Ratings = resolveRatings(b, ident)
	v.Dates = resolveDates(b)

	if b.AverageDurationSeconds > 0 {
		v.AverageDuration = fmt.Sprintf("%d mins", int(math.Round(b.AverageDurationSeconds/60)))
	}

	return v, nil
}

// identity is one candidate origin of the header block.
// Candidates are evaluated in a fixed priority order and the first present
// one wins exclusively; lower-priority identity data is never blended in.
type identity interface {
	// present reports whether this source has header data to offer.
	present() bool
	// title returns the podcast title.
	title() string
	// description returns the podcast description, pre-formatted variant preferred.
	description() string
	// banners returns the upper-cased banner lines.
	banners() []string
	// links returns the constructed links of this source, in their fixed order.
	links() []Link
	// rating returns the source-specific rating fragment, nil when unrated.
	rating() *Rating
}

// resolveIdentity returns the highest-priority present identity source.
func resolveIdentity(b *Bundle) identity {
	candidates := []identity{
		&podchaserIdentity{b.Podchaser},
		&indexIdentity{b.Index},
		&genericIdentity{b},
	}
	for _, c := range candidates {
		if c.present() {
			return c
		}
	}

	return candidates[len(candidates)-1] // unreachable, the generic source is always present
}

type podchaserIdentity struct {
	block *PodchaserBlock
}

func (pi *podchaserIdentity) present() bool {
	return pi.block != nil
}

func (pi *podchaserIdentity) title() string {
	return pi.block.Title
}

func (pi *podchaserIdentity) description() string {
	if pi.block.HTMLDescription != "" {
		return pi.block.HTMLDescription
	}

	return pi.block.Description
}

func (pi *podchaserIdentity) banners() []string {
	var banners []string
	if pi.block.NetworkTitle != "" {
		banners = append(banners, strings.ToUpper(pi.block.NetworkTitle))
	}
	if pi.block.Author != "" {
		banners = append(banners, productionBanner(pi.block.AuthorArticle, pi.block.Author))
	}

	return banners
}

func (pi *podchaserIdentity) links() []Link {
	var (
		pc    = pi.block
		links []Link
	)
	if pc.WebURL != "" {
		links = append(links, Link{Label: "Website", URL: pc.WebURL})
	}
	if pc.RSSURL != "" {
		links = append(links, Link{Label: "RSS Feed", URL: pc.RSSURL})
	}
	if pc.SpotifyID != "" {
		links = append(links, Link{Label: "Spotify", URL: "https://open.spotify.com/show/" + pc.SpotifyID})
	}
	if pc.ApplePodcastsID != "" {
		links = append(links, Link{Label: "Apple Podcasts", URL: "https://podcasts.apple.com/us/podcast/id" + pc.ApplePodcastsID})
	}
	if pc.URL != "" {
		links = append(links, Link{Label: "Podchaser", URL: pc.URL})
	}

	return links
}

func (pi *podchaserIdentity) rating() *Rating {
	if pi.block.RatingAverage == nil {
		return nil
	}

	return &Rating{
		Label: "Podchaser Rating",
		Value: formatRating(*pi.block.RatingAverage),
		Votes: formatVotes(pi.block.RatingCount),
	}
}

type indexIdentity struct {
	block *IndexBlock
}

func (ii *indexIdentity) present() bool {
	return ii.block != nil
}

func (ii *indexIdentity) title() string {
	return ii.block.Title
}

func (ii *indexIdentity) description() string {
	return ii.block.Description
}

func (ii *indexIdentity) banners() []string {
	if ii.block.Author == "" {
		return nil
	}

	return []string{productionBanner(ii.block.AuthorArticle, ii.block.Author)}
}

func (ii *indexIdentity) links() []Link {
	var (
		ib    = ii.block
		links []Link
	)
	if ib.Link != "" {
		links = append(links, Link{Label: "Website", URL: ib.Link})
	}
	if ib.ITunesID != 0 {
		links = append(links, Link{Label: "Apple Podcasts", URL: fmt.Sprintf("https://podcasts.apple.com/us/podcast/id%d", ib.ITunesID)})
	}
	if ib.URL != "" {
		links = append(links, Link{Label: "Podcast Index", URL: ib.URL})
	}

	return links
}

func (ii *indexIdentity) rating() *Rating {
	return nil
}

type genericIdentity struct {
	bundle *Bundle
}

func (gi *genericIdentity) present() bool {
	return true
}

func (gi *genericIdentity) title() string {
	return gi.bundle.Name
}

func (gi *genericIdentity) description() string {
	return gi.bundle.Description
}

func (gi *genericIdentity) banners() []string {
	return nil
}

func (gi *genericIdentity) links() []Link {
	return nil
}

func (gi *genericIdentity) rating() *Rating {
	return nil
}

// resolveTags cascades Podchaser categories, Podcast Index categories and
// the caller-supplied tag string, first non-empty wins.
func resolveTags(b *Bundle) string {
	if b.Podchaser != nil && len(b.Podchaser.Categories) > 0 {
		return joinCategories(b.Podchaser.Categories)
	}
	if b.Index != nil && len(b.Index.Categories) > 0 {
		return joinCategories(b.Index.Categories)
	}

	return b.Tags
}

// joinCategories lower-cases the categories, replaces spaces with dots and comma-joins them.
// Example: ["True Crime", "Comedy"] -> "true.crime, comedy"
func joinCategories(categories []string) string {
	tags := make([]string, len(categories))
	for i, category := range categories {
		tags[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", ".")
	}

	return strings.Join(tags, ", ")
}

// resolveLinks assembles the link line: the winning source's links in fixed
// order, with the Podnews page and the constructed Podcast Index page merged
// in additively. An additive link whose URL the winning source already
// contributed is skipped. The generic source short-circuits to its pre-built
// line.
func resolveLinks(b *Bundle, ident identity, v *View) {
	if _, ok := ident.(*genericIdentity); ok {
		v.RawLinks = b.Links
		return
	}

	links := ident.links()
	appendLink := func(label, url string) {
		if slices.ContainsFunc(links, func(l Link) bool { return l.URL == url }) {
			return
		}

		links = append(links, Link{Label: label, URL: url})
	}

	if b.Podnews != nil && b.Podnews.URL != "" {
		appendLink("Podnews", b.Podnews.URL)
	}
	if b.Index != nil && b.Index.ID != 0 {
		appendLink("Podcastindex.org", fmt.Sprintf("https://podcastindex.org/podcast/%d", b.Index.ID))
	}

	v.Links = links
}

// resolveRatings evaluates the source-specific rating and the third-party
// Apple rating independently; both may be present.
func resolveRatings(b *Bundle, ident identity) []Rating {
	var ratings []Rating
	if r := ident.rating(); r != nil {
		ratings = append(ratings, *r)
	}
	if b.Podnews != nil && b.Podnews.AppleRating != nil {
		count := b.Podnews.AppleRatingCount
		if count <= 0 {
			count = 1
		}

		ratings = append(ratings, Rating{
			Label: "Apple Podcasts Rating",
			Value: formatRating(*b.Podnews.AppleRating),
			Votes: formatVotes(count),
		})
	}

	return ratings
}

// resolveDates collapses identical first/last dates into a single "Date"
// fragment, otherwise labels the endpoints by whether the release starts at
// the podcast's true beginning and whether the podcast has completed.
func resolveDates(b *Bundle) []LabeledValue {
	first, last := b.FirstEpisodeDate, b.LastEpisodeDate
	if first != "" && first == last {
		return []LabeledValue{{Label: "Date", Value: first}}
	}

	var dates []LabeledValue
	if first != "" {
		label := "First Included Episode"
		if b.TrueFirstEpisodeDate == "" || first == b.TrueFirstEpisodeDate {
			label = "Start Date"
		}

		dates = append(dates, LabeledValue{Label: label, Value: first})
	}
	if last != "" {
		label := "Last Included Episode"
		if b.Completed {
			label = "End Date"
		}

		dates = append(dates, LabeledValue{Label: label, Value: last})
	}

	return dates
}

// validate rejects malformed numeric fields before resolution begins.
func validate(b *Bundle) error {
	if err := validFloat("average_duration_seconds", b.AverageDurationSeconds); err != nil {
		return err
	}
	if b.NumberOfFiles < 0 {
		return &ErrInvalidField{Field: "number_of_files", Value: strconv.Itoa(b.NumberOfFiles)}
	}
	if pc := b.Podchaser; pc != nil {
		if pc.RatingAverage != nil {
			if err := validFloat("podchaser.rating_average", *pc.RatingAverage); err != nil {
				return err
			}
		}
		if pc.RatingCount < 0 {
			return &ErrInvalidField{Field: "podchaser.rating_count", Value: strconv.Itoa(pc.RatingCount)}
		}
	}
	if pn := b.Podnews; pn != nil {
		if pn.AppleRating != nil {
			if err := validFloat("podnews.apple_rating", *pn.AppleRating); err != nil {
				return err
			}
		}
		if pn.AppleRatingCount < 0 {
			return &ErrInvalidField{Field: "podnews.apple_rating_count", Value: strconv.Itoa(pn.AppleRatingCount)}
		}
	}

	return nil
}

func validFloat(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return &ErrInvalidField{Field: field, Value: formatRating(value)}
	}

	return nil
}

func formatRating(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// formatVotes pluralizes a vote count. The count field is authoritative;
// the rating value never leaks into the vote count.
func formatVotes(count int) string {
	if count > 1 {
		return fmt.Sprintf("%d votes", count)
	}

	return fmt.Sprintf("%d vote", count)
}

func productionBanner(article, author string) string {
	return strings.ToUpper(strings.Join(strings.Fields(article+" "+author+" PRODUCTION"), " "))
}
