// Package release turns a podcast release directory or name into a rendered
// torrent description, combining catalog lookups, file analysis and the
// persisted snapshot of earlier runs.
package release

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/castforge-project/castforge/config"
	"github.com/castforge-project/castforge/release/analyze"
	"github.com/castforge-project/castforge/release/desc"
	"github.com/castforge-project/castforge/release/meta"
	"github.com/castforge-project/castforge/release/rss"
	"github.com/castforge-project/castforge/release/store"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// ID derives a stable release ID from a cleaned podcast name.
// Example: "Example Cast" -> "2c0c381d8e5ca24e6e99a720e1a4bff4"
func ID(name string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(name))))

	return hex.EncodeToString(sum[:])
}

// Request identifies one release to describe.
type Request struct {
	// Path is the release directory, empty when no files should be analyzed.
	Path string `json:"path,omitempty"`
	// Name is the raw release name, derived from Path when empty.
	Name string `json:"name,omitempty"`
}

// Result is the outcome of describing a release.
type Result struct {
	// ID is the stable release ID.
	ID string `json:"id"`
	// Name is the cleaned release name.
	Name string `json:"name"`
	// Bundle is the assembled metadata bundle the description was rendered from.
	Bundle *meta.Bundle `json:"bundle"`
	// Description is the rendered BBCode description.
	Description string `json:"description"`
	// Tags is the comma-joined tag string.
	Tags string `json:"tags,omitempty"`
}

// Describer assembles metadata bundles and renders release descriptions.
type Describer struct {
	catalog    *Catalog
	analyzer   *analyze.Analyzer
	store      *store.Store
	cleanName  *regexp.Regexp
	replacer   *strings.Replacer
	omitFooter bool
	logger     *zap.Logger
}

// NewDescriber creates a describer. The store may be nil, in which case
// true first episode dates are not tracked across runs.
func NewDescriber(catalog *Catalog, analyzer *analyze.Analyzer, st *store.Store, cfg *config.Config, logger *zap.Logger) (*Describer, error) {
	var cleanName *regexp.Regexp
	if cfg.Release.CleanName != "" {
		var err error
		if cleanName, err = regexp.Compile(cfg.Release.CleanName); err != nil {
			return nil, errors.Wrap(err, "failed to compile clean name pattern")
		}
	}

	pairs := make([]string, 0, len(cfg.DescriptionReplacements)*2)
	for _, r := range cfg.DescriptionReplacements {
		pairs = append(pairs, r.Pattern, r.ReplaceWith)
	}

	return &Describer{
		catalog:    catalog,
		analyzer:   analyzer,
		store:      st,
		cleanName:  cleanName,
		replacer:   strings.NewReplacer(pairs...),
		omitFooter: cfg.Release.OmitFooter,
		logger:     logger,
	}, nil
}

// CleanName strips release decorations from a folder name using the
// configured pattern's first group.
// Example: "Example Cast (2019-2023) [MP3]" -> "Example Cast"
func (d *Describer) CleanName(name string) string {
	if d.cleanName != nil {
		if m := d.cleanName.FindStringSubmatch(name); len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
	}

	return strings.TrimSpace(name)
}

// Describe assembles the metadata bundle for a release and renders its description.
func (d *Describer) Describe(ctx context.Context, req *Request) (*Result, error) {
	name := req.Name
	if name == "" {
		name = filepath.Base(req.Path)
	}

	var (
		clean = d.CleanName(name)
		id    = ID(clean)
	)
	d.logger.Info("describing release", zap.String("id", id), zap.String("name", clean))

	bundle := &meta.Bundle{Name: clean}
	d.catalog.Fetch(ctx, clean, bundle)

	if req.Path != "" {
		if bundle.Podchaser == nil && bundle.Index == nil {
			d.fillFromFeed(req.Path, bundle)
		}

		analysis := d.reusableAnalysis(id, req.Path)
		if analysis == nil {
			var err error
			if analysis, err = d.analyzer.Analyze(req.Path); err != nil {
				return nil, errors.Wrap(err, "failed to analyze release files")
			}
		}

		mergeAnalysis(bundle, analysis)
		if d.store != nil {
			if err := d.mergeSnapshot(id, clean, analysis, bundle); err != nil {
				return nil, errors.Wrap(err, "failed to update release snapshot")
			}
		}
	}

	if bundle.Podchaser != nil {
		bundle.Completed = !bundle.Podchaser.Active()
	}

	return d.Render(bundle)
}

// Render resolves a pre-assembled bundle and renders the final description,
// applying the configured description replacements.
func (d *Describer) Render(b *meta.Bundle) (*Result, error) {
	view, err := meta.Resolve(b)
	if err != nil {
		return nil, err
	}
	view.Description = d.replacer.Replace(view.Description)

	doc := desc.Render(view)
	if d.omitFooter {
		doc = strings.TrimSuffix(strings.TrimSuffix(doc, desc.Footer), "\n\n")
	}

	return &Result{
		ID:          ID(b.Name),
		Name:        b.Name,
		Bundle:      b,
		Description: doc,
		Tags:        view.Tags,
	}, nil
}

// reusableAnalysis returns the stored analysis of a release whose directory
// tree has not changed since the snapshot was written, nil when it must be
// re-probed. Directory modification times are a cheap proxy for the file set;
// in-place file rewrites are rare for finished releases.
func (d *Describer) reusableAnalysis(id, dir string) *analyze.Analysis {
	if d.store == nil {
		return nil
	}

	snap := d.store.Get(id)
	if snap == nil || snap.Analysis == nil || !unchangedSince(dir, snap.UpdatedAt) {
		return nil
	}

	d.logger.Info("reusing stored release analysis", zap.String("id", id), zap.String("path", dir))
	return snap.Analysis
}

// unchangedSince reports whether no directory under root was modified after t.
func unchangedSince(root string, t time.Time) bool {
	unchanged := true
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			unchanged = false
			return filepath.SkipAll
		}
		if !entry.IsDir() {
			return nil
		}

		fi, err := entry.Info()
		if err != nil || fi.ModTime().After(t) {
			unchanged = false
			return filepath.SkipAll
		}

		return nil
	})

	return unchanged
}

// feedExtensions are the top-level feed files recognized in a release directory.
var feedExtensions = []string{".rss", ".xml"}

// fillFromFeed fills the generic bundle fields from a feed file shipped with
// the release, used when no catalog recognized the podcast.
func (d *Describer) fillFromFeed(dir string, b *meta.Bundle) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(feedExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		feed, err := rss.ParseFile(path)
		if err != nil {
			d.logger.Warn("failed to parse feed file", zap.String("path", path), zap.Error(err))
			continue
		}

		if b.Description == "" {
			b.Description = feed.Description
		}
		if b.Tags == "" {
			b.Tags = feed.Tags()
		}
		if b.Links == "" {
			var links []string
			if feed.Link != "" {
				links = append(links, desc.Link(feed.Link, "Website"))
			}
			if feed.FeedURL != "" {
				links = append(links, desc.Link(feed.FeedURL, "RSS Feed"))
			}

			b.Links = strings.Join(links, " | ")
		}

		return
	}
}

// mergeAnalysis copies the technical half of the bundle out of a file analysis.
func mergeAnalysis(b *meta.Bundle, a *analyze.Analysis) {
	b.FileFormat = a.FileFormat
	b.OverallBitrate = a.OverallBitrate
	b.NumberOfFiles = a.NumberOfFiles
	b.AverageDurationSeconds = a.AverageDurationSeconds
	b.FirstEpisodeDate = a.FirstEpisodeDate
	b.LastEpisodeDate = a.LastEpisodeDate
	b.BitrateBreakdown = a.BitrateBreakdown()
	b.BitrateOutliers = a.BitrateOutliers()
	b.FormatBreakdown = a.FormatBreakdown()
	b.FormatOutliers = a.FormatOutliers()
}

// mergeSnapshot folds the analysis into the persisted snapshot and reads the
// true first episode date back into the bundle. Dates are in the 2006-01-02
// format, so lexicographic comparison is chronological.
func (d *Describer) mergeSnapshot(id, name string, a *analyze.Analysis, b *meta.Bundle) error {
	var trueFirst string
	err := d.store.Update(id, func(snap *store.Snapshot) *store.Snapshot {
		if snap == nil {
			snap = &store.Snapshot{}
		}

		snap.Name = name
		snap.Analysis = a
		if a.FirstEpisodeDate != "" && (snap.TrueFirstEpisodeDate == "" || a.FirstEpisodeDate < snap.TrueFirstEpisodeDate) {
			snap.TrueFirstEpisodeDate = a.FirstEpisodeDate
		}
		if a.LastEpisodeDate > snap.TrueLastEpisodeDate {
			snap.TrueLastEpisodeDate = a.LastEpisodeDate
		}

		trueFirst = snap.TrueFirstEpisodeDate
		return snap
	})
	if err != nil {
		return err
	}

	b.TrueFirstEpisodeDate = trueFirst
	return nil
}
