// Package desc assembles the forum-markup description document of a podcast
// release from a resolved metadata view.
package desc

import (
	"strconv"
	"strings"

	"github.com/castforge-project/castforge/release/meta"
)

// Footer is the fixed attribution line every rendered document ends with.
const Footer = "[size=1][i]Powered by castforge[/i][/size]"

const (
	// fragmentSeparator joins adjacent present fragments within a line.
	fragmentSeparator = " -- "
	// linkSeparator joins adjacent present links.
	linkSeparator = " | "
	// sectionSeparator joins adjacent present sections.
	sectionSeparator = "\n\n"
)

// Render assembles the description document from a resolved view.
// It is deterministic and total over field presence: every combination of
// absent fields yields valid output with no dangling separators, and the
// document always ends with Footer.
func Render(v *meta.View) string {
	doc := joinPresent(
		sectionSeparator,
		banners(v),
		titleLine(v),
		v.Description,
		linkLine(v),
		statsLine(v),
		dateLine(v),
		ratingLine(v),
		warningBlocks(v),
	)
	if doc == "" {
		return Footer
	}

	return doc + sectionSeparator + Footer
}

// joinPresent joins the non-empty fragments with sep. A present fragment is
// never preceded or followed by a stray separator when its neighbor is absent.
func joinPresent(sep string, fragments ...string) string {
	var b strings.Builder
	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}

		b.WriteString(fragment)
	}

	return b.String()
}

func banners(v *meta.View) string {
	lines := make([]string, len(v.Banners))
	for i, banner := range v.Banners {
		lines[i] = sized(3, bold(banner))
	}

	return strings.Join(lines, "\n")
}

func titleLine(v *meta.View) string {
	if v.Title == "" {
		return ""
	}

	return sized(4, bold(v.Title))
}

func linkLine(v *meta.View) string {
	if v.RawLinks != "" {
		return v.RawLinks
	}

	links := make([]string, len(v.Links))
	for i, l := range v.Links {
		links[i] = Link(l.URL, l.Label)
	}

	return joinPresent(linkSeparator, links...)
}

func statsLine(v *meta.View) string {
	var files string
	if v.NumberOfFiles > 0 {
		files = strconv.Itoa(v.NumberOfFiles)
	}

	return joinPresent(
		fragmentSeparator,
		fragment("File Format", v.FileFormat),
		fragment("Overall Bitrate", v.OverallBitrate),
		fragment("Number of Episodes", files),
		fragment("Average Episode Duration", v.AverageDuration),
	)
}

func dateLine(v *meta.View) string {
	dates := make([]string, len(v.Dates))
	for i, d := range v.Dates {
		dates[i] = fragment(d.Label, d.Value)
	}

	return joinPresent(fragmentSeparator, dates...)
}

func ratingLine(v *meta.View) string {
	ratings := make([]string, len(v.Ratings))
	for i, r := range v.Ratings {
		ratings[i] = fragment(r.Label, r.Value) + " (" + r.Votes + ")"
	}

	return joinPresent(fragmentSeparator, ratings...)
}

// warningBlocks renders up to four collapsible blocks; the blank line between
// the bitrate pair and the format pair appears only when both pairs have at
// least one present block.
func warningBlocks(v *meta.View) string {
	bitrate := joinPresent(
		"\n",
		spoilerBlock("Bitrate Breakdown", v.BitrateBreakdown),
		spoilerBlock("Files With Differing Bitrate", strings.Join(v.BitrateOutliers, "\n")),
	)
	format := joinPresent(
		"\n",
		spoilerBlock("File Format Breakdown", v.FormatBreakdown),
		spoilerBlock("Files With Differing File Format", strings.Join(v.FormatOutliers, "\n")),
	)

	return joinPresent(sectionSeparator, bitrate, format)
}

// fragment renders a "Label: [b]value[/b]" fragment, empty when the value is absent.
func fragment(label, value string) string {
	if value == "" {
		return ""
	}

	return label + ": " + bold(value)
}

func spoilerBlock(title, body string) string {
	if body == "" {
		return ""
	}

	return spoiler(title, code(body))
}
