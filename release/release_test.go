package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/castforge-project/castforge/config"
	"github.com/castforge-project/castforge/release/analyze"
	"github.com/castforge-project/castforge/release/meta"
	"github.com/castforge-project/castforge/release/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const podchaserResponseDoc = `{
	"data": {
		"podcasts": {
			"data": [{
				"title": "Example Cast",
				"description": "A show about examples.",
				"author": {"name": "Example Productions"},
				"webUrl": "https://example.com",
				"status": "ACTIVE"
			}]
		}
	}
}`

type staticProber struct{}

func (staticProber) Probe(_ string) (*analyze.ProbeResult, error) {
	return &analyze.ProbeResult{BitrateKbps: 128, DurationSeconds: 120}, nil
}

func TestID(t *testing.T) {
	assert.Equal(t, ID("Example Cast"), ID("  example cast "))
	assert.Len(t, ID("Example Cast"), 32)
	assert.NotEqual(t, ID("Example Cast"), ID("Another Cast"))
}

func TestCleanName(t *testing.T) {
	d, err := NewDescriber(nil, nil, nil, &config.Config{
		Release: config.Release{CleanName: `^(.*?)\s*\(`},
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Example Cast", d.CleanName("Example Cast (2019-2023) [MP3]"))
	assert.Equal(t, "Example Cast", d.CleanName("Example Cast"))
}

func TestCleanNameInvalidPattern(t *testing.T) {
	_, err := NewDescriber(nil, nil, nil, &config.Config{
		Release: config.Release{CleanName: `^(`},
	}, zap.NewNop())
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(podchaserResponseDoc))
	}))
	defer srv.Close()

	catalog, err := NewConfiguredCatalog(map[config.Provider]map[string]interface{}{
		config.ProviderPodchaser: {"token": "t0ken", "url": srv.URL},
	}, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "Example Cast (2019-2023) [MP3]")
	require.NoError(t, os.Mkdir(releaseDir, 0o755))
	for _, name := range []string{"2019-01-01 - one.mp3", "2023-12-24 - two.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(releaseDir, name), []byte("ID3"), 0o644))
	}

	st, err := store.Open(filepath.Join(dir, "releases.json"), zap.NewNop())
	require.NoError(t, err)

	d, err := NewDescriber(catalog, analyze.NewAnalyzer(staticProber{}, zap.NewNop()), st, &config.Config{
		Release: config.Release{CleanName: `^(.*?)\s*\(`},
	}, zap.NewNop())
	require.NoError(t, err)

	result, err := d.Describe(context.Background(), &Request{Path: releaseDir})
	require.NoError(t, err)

	assert.Equal(t, "Example Cast", result.Name)
	assert.Equal(t, ID("Example Cast"), result.ID)
	require.NotNil(t, result.Bundle.Podchaser)
	assert.Equal(t, "MP3", result.Bundle.FileFormat)
	assert.Equal(t, 2, result.Bundle.NumberOfFiles)
	assert.Equal(t, "2019-01-01", result.Bundle.TrueFirstEpisodeDate)

	assert.Contains(t, result.Description, "Example Cast")
	assert.Contains(t, result.Description, "Start Date: [b]2019-01-01[/b]")
	assert.Contains(t, result.Description, "File Format: [b]MP3[/b]")

	// snapshot persisted
	snap := st.Get(result.ID)
	require.NotNil(t, snap)
	assert.Equal(t, "2019-01-01", snap.TrueFirstEpisodeDate)
}

func TestDescribeKeepsTrueFirstDate(t *testing.T) {
	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "Example Cast")
	require.NoError(t, os.Mkdir(releaseDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "2019-01-01 - one.mp3"), []byte("ID3"), 0o644))

	st, err := store.Open(filepath.Join(dir, "releases.json"), zap.NewNop())
	require.NoError(t, err)

	catalog, err := NewConfiguredCatalog(nil, nil, zap.NewNop())
	require.NoError(t, err)

	d, err := NewDescriber(catalog, analyze.NewAnalyzer(staticProber{}, zap.NewNop()), st, &config.Config{}, zap.NewNop())
	require.NoError(t, err)

	_, err = d.Describe(context.Background(), &Request{Path: releaseDir})
	require.NoError(t, err)

	// the release is trimmed to a later run of episodes
	require.NoError(t, os.Remove(filepath.Join(releaseDir, "2019-01-01 - one.mp3")))
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "2021-06-01 - two.mp3"), []byte("ID3"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "2021-07-01 - three.mp3"), []byte("ID3"), 0o644))

	result, err := d.Describe(context.Background(), &Request{Path: releaseDir})
	require.NoError(t, err)

	assert.Equal(t, "2021-06-01", result.Bundle.FirstEpisodeDate)
	assert.Equal(t, "2019-01-01", result.Bundle.TrueFirstEpisodeDate)
	assert.Contains(t, result.Description, "First Included Episode: [b]2021-06-01[/b]")
}

func TestDescribeFeedFallback(t *testing.T) {
	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "Example Cast")
	require.NoError(t, os.Mkdir(releaseDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "2021-06-01 - one.mp3"), []byte("ID3"), 0o644))

	feedDoc := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
	<channel>
		<title>Example Cast</title>
		<description>A show about examples.</description>
		<link>https://example.com</link>
		<itunes:category text="History"/>
	</channel>
</rss>`
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "feed.xml"), []byte(feedDoc), 0o644))

	catalog, err := NewConfiguredCatalog(nil, nil, zap.NewNop())
	require.NoError(t, err)

	d, err := NewDescriber(catalog, analyze.NewAnalyzer(staticProber{}, zap.NewNop()), nil, &config.Config{}, zap.NewNop())
	require.NoError(t, err)

	result, err := d.Describe(context.Background(), &Request{Path: releaseDir})
	require.NoError(t, err)

	assert.Contains(t, result.Description, "A show about examples.")
	assert.Contains(t, result.Description, "[url=https://example.com]Website[/url]")
	assert.Equal(t, "history", result.Tags)
}

func TestRenderReplacements(t *testing.T) {
	d, err := NewDescriber(nil, nil, nil, &config.Config{
		DescriptionReplacements: []config.Replacement{
			{Pattern: "Hosted on Acast.", ReplaceWith: ""},
		},
	}, zap.NewNop())
	require.NoError(t, err)

	result, err := d.Render(&meta.Bundle{
		Name:        "Example Cast",
		Description: "A show about examples. Hosted on Acast.",
	})
	require.NoError(t, err)

	assert.Contains(t, result.Description, "A show about examples.")
	assert.NotContains(t, result.Description, "Acast")
}

func TestRenderOmitFooter(t *testing.T) {
	d, err := NewDescriber(nil, nil, nil, &config.Config{
		Release: config.Release{OmitFooter: true},
	}, zap.NewNop())
	require.NoError(t, err)

	result, err := d.Render(&meta.Bundle{Name: "Example Cast", Description: "A show about examples."})
	require.NoError(t, err)

	assert.NotContains(t, result.Description, "Powered by castforge")
	assert.True(t, strings.HasSuffix(result.Description, "A show about examples."))
}

func TestNewConfiguredCatalogUnknownProvider(t *testing.T) {
	_, err := NewConfiguredCatalog(map[config.Provider]map[string]interface{}{
		"imaginary": {},
	}, nil, zap.NewNop())

	var unknownErr *ErrUnknownProvider
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "imaginary", unknownErr.Provider)
}
