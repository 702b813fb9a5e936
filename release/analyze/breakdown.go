package analyze

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BitrateBreakdown renders the bitrate-to-episode-count table,
// empty when the release has a uniform bitrate.
func (a *Analysis) BitrateBreakdown() string {
	return breakdownTable("Bitrate", a.Bitrates)
}

// FormatBreakdown renders the format-to-episode-count table,
// empty when the release has a uniform file format.
func (a *Analysis) FormatBreakdown() string {
	return breakdownTable("File Format", a.Formats)
}

// BitrateOutliers lists the files that fall outside the most common bitrate.
func (a *Analysis) BitrateOutliers() []string {
	return outliers(a.Bitrates)
}

// FormatOutliers lists the files that fall outside the most common file format.
func (a *Analysis) FormatOutliers() []string {
	return outliers(a.Formats)
}

func breakdownTable(label string, groups map[string][]string) string {
	if len(groups) < 2 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{label, "Episodes"})
	for _, key := range sortedKeys(groups) {
		tw.AppendRow(table.Row{key, len(groups[key])})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	return tw.Render()
}

// outliers collects the files outside the largest group, sorted for stable output.
func outliers(groups map[string][]string) []string {
	if len(groups) < 2 {
		return nil
	}

	majority := ""
	for _, key := range sortedKeys(groups) {
		if majority == "" || len(groups[key]) > len(groups[majority]) {
			majority = key
		}
	}

	var files []string
	for key, names := range groups {
		if key != majority {
			files = append(files, names...)
		}
	}
	slices.Sort(files)

	return files
}

func sortedKeys(groups map[string][]string) []string {
	keys := maps.Keys(groups)
	slices.Sort(keys)

	return keys
}
