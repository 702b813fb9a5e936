// Package analyze inspects the audio files of a release directory and
// aggregates the technical half of a metadata bundle.
package analyze

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

var (
	allowedMimeGroups = []string{"audio"}

	// audioExtensions accepts files that embedded tags confuse the MIME sniffer about.
	audioExtensions = []string{".aac", ".flac", ".m4a", ".m4b", ".mp3", ".ogg", ".opus", ".wav", ".wma"}

	episodeDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// mixedValue is the release-wide value of a field the files disagree on.
const mixedValue = "Mixed"

// Analyzer probes and aggregates the audio files of release directories.
type Analyzer struct {
	prober Prober
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer backed by the supplied prober.
func NewAnalyzer(prober Prober, logger *zap.Logger) *Analyzer {
	return &Analyzer{prober: prober, logger: logger}
}

// Analysis is the aggregated result of analyzing one release directory.
type Analysis struct {
	// FileFormat is the release-wide file format, "Mixed" when files disagree.
	FileFormat string `json:"file_format,omitempty"`
	// OverallBitrate is the release-wide bitrate, "Mixed" when files disagree.
	OverallBitrate string `json:"overall_bitrate,omitempty"`
	// NumberOfFiles is the audio file count.
	NumberOfFiles int `json:"number_of_files"`
	// AverageDurationSeconds is the mean file duration, 0 when no file could be probed.
	AverageDurationSeconds float64 `json:"average_duration_seconds,omitempty"`

	// FirstEpisodeDate is the earliest episode date found, formatted 2006-01-02.
	FirstEpisodeDate string `json:"first_episode_date,omitempty"`
	// LastEpisodeDate is the latest episode date found, formatted 2006-01-02.
	LastEpisodeDate string `json:"last_episode_date,omitempty"`

	// Bitrates groups file names by their bitrate label.
	Bitrates map[string][]string `json:"bitrates,omitempty"`
	// Formats groups file names by their file format.
	Formats map[string][]string `json:"formats,omitempty"`
}

// Analyze walks a release directory and aggregates its audio files.
// Dot-prefixed directories are skipped; files the prober rejects are counted
// with an unknown bitrate rather than failing the run.
func (a *Analyzer) Analyze(dir string) (*Analysis, error) {
	analysis := &Analysis{
		Bitrates: make(map[string][]string),
		Formats:  make(map[string][]string),
	}

	var (
		totalDuration float64
		probedFiles   int
		dates         []string
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}

			return nil
		}
		if !acceptFile(path) {
			return nil
		}

		name := d.Name()
		analysis.NumberOfFiles++

		format := strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
		analysis.Formats[format] = append(analysis.Formats[format], name)

		if date := episodeDate(path, d); date != "" {
			dates = append(dates, date)
		}

		probe, err := a.prober.Probe(path)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("failed to probe file", zap.String("path", path), zap.Error(err))
			}
			probe = &ProbeResult{}
		}

		label := bitrateLabel(probe)
		analysis.Bitrates[label] = append(analysis.Bitrates[label], name)

		if probe.DurationSeconds > 0 {
			totalDuration += probe.DurationSeconds
			probedFiles++
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk release files")
	}

	if probedFiles > 0 {
		analysis.AverageDurationSeconds = totalDuration / float64(probedFiles)
	}
	if len(dates) > 0 {
		sort.Strings(dates)
		analysis.FirstEpisodeDate = dates[0]
		analysis.LastEpisodeDate = dates[len(dates)-1]
	}

	analysis.FileFormat = unanimousKey(analysis.Formats)
	analysis.OverallBitrate = unanimousKey(analysis.Bitrates)

	return analysis, nil
}

// acceptFile reports whether a file should be treated as an episode audio file.
func acceptFile(path string) bool {
	if mime, err := mimetype.DetectFile(path); err == nil {
		if slices.Contains(allowedMimeGroups, strings.SplitN(mime.String(), "/", 2)[0]) {
			return true
		}
	}

	return slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path)))
}

// episodeDate extracts the episode date from a file name, falling back to the
// file's modification time.
func episodeDate(path string, d fs.DirEntry) string {
	if date := episodeDatePattern.FindString(filepath.Base(path)); date != "" {
		return date
	}

	fi, err := d.Info()
	if err != nil {
		return ""
	}

	return fi.ModTime().Format("2006-01-02")
}

func bitrateLabel(probe *ProbeResult) string {
	switch {
	case probe.VariableBitrate:
		return "VBR"
	case probe.BitrateKbps > 0:
		return fmt.Sprintf("%d kbps", probe.BitrateKbps)
	}

	return "Unknown"
}

// unanimousKey returns the single key of a grouping, "Mixed" when the files
// disagree and empty when there are no files at all.
func unanimousKey(groups map[string][]string) string {
	switch len(groups) {
	case 0:
		return ""
	case 1:
		for key := range groups {
			return key
		}
	}

	return mixedValue
}
