package release

import (
	"context"
	"net/http"
	"time"

	"github.com/castforge-project/castforge/config"
	"github.com/castforge-project/castforge/release/meta"
	"github.com/castforge-project/castforge/release/meta/podcastindex"
	"github.com/castforge-project/castforge/release/meta/podchaser"
	"github.com/castforge-project/castforge/release/meta/podnews"
	"github.com/erni27/imcache"
	"github.com/go-faster/errors"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// defaultCacheExp is the default API response cache expiration.
var defaultCacheExp = imcache.WithExpiration(5 * time.Minute)

// podchaserOptions are the configuration options of the Podchaser source.
type podchaserOptions struct {
	// Token is the Podchaser API access token.
	Token string `mapstructure:"token"`
	// URL is the Podchaser GraphQL endpoint, defaults to podchaser.DefaultURL.
	URL string `mapstructure:"url"`
	// CacheExp is the API response cache expiration duration in seconds, defaults to 5 minutes (60*5).
	CacheExp int `mapstructure:"cache_exp"`
}

// podcastIndexOptions are the configuration options of the Podcast Index source.
type podcastIndexOptions struct {
	// Key is the Podcast Index API key.
	Key string `mapstructure:"key"`
	// Secret is the Podcast Index API secret.
	Secret string `mapstructure:"secret"`
	// URL is the base URL of the Podcast Index API, defaults to podcastindex.DefaultURL.
	URL string `mapstructure:"url"`
	// CacheExp is the API response cache expiration duration in seconds, defaults to 5 minutes (60*5).
	CacheExp int `mapstructure:"cache_exp"`
}

// podnewsOptions are the configuration options of the Podnews source.
type podnewsOptions struct {
	// URL is the Podnews base URL, defaults to podnews.DefaultURL.
	URL string `mapstructure:"url"`
	// CacheExp is the page cache expiration duration in seconds, defaults to 5 minutes (60*5).
	CacheExp int `mapstructure:"cache_exp"`
}

// Catalog fans podcast lookups out to the configured metadata sources.
// Unconfigured sources simply leave their bundle block nil.
type Catalog struct {
	podchaser *podchaser.Source
	index     *podcastindex.Source
	podnews   *podnews.Source
	logger    *zap.Logger
}

// NewConfiguredCatalog creates a catalog from per-provider configuration.
func NewConfiguredCatalog(sources map[config.Provider]map[string]interface{}, client *http.Client, logger *zap.Logger) (*Catalog, error) {
	if client == nil {
		client = http.DefaultClient
	}

	c := &Catalog{logger: logger}
	for provider, options := range sources {
		switch provider {
		case config.ProviderPodchaser:
			var parsedOpts podchaserOptions
			if err := mapstructure.WeakDecode(options, &parsedOpts); err != nil {
				return nil, errors.Wrapf(err, "failed to decode source %s options", provider)
			}

			url := parsedOpts.URL
			if url == "" { // zero value
				url = podchaser.DefaultURL
			}

			c.podchaser = podchaser.NewSource(client, url, parsedOpts.Token, cacheExp(parsedOpts.CacheExp))
		case config.ProviderPodcastIndex:
			var parsedOpts podcastIndexOptions
			if err := mapstructure.WeakDecode(options, &parsedOpts); err != nil {
				return nil, errors.Wrapf(err, "failed to decode source %s options", provider)
			}

			url := parsedOpts.URL
			if url == "" { // zero value
				url = podcastindex.DefaultURL
			}

			c.index = podcastindex.NewSource(client, url, parsedOpts.Key, parsedOpts.Secret, cacheExp(parsedOpts.CacheExp))
		case config.ProviderPodnews:
			var parsedOpts podnewsOptions
			if err := mapstructure.WeakDecode(options, &parsedOpts); err != nil {
				return nil, errors.Wrapf(err, "failed to decode source %s options", provider)
			}

			url := parsedOpts.URL
			if url == "" { // zero value
				url = podnews.DefaultURL
			}

			c.podnews = podnews.NewSource(client, url, cacheExp(parsedOpts.CacheExp))
		default:
			return nil, &ErrUnknownProvider{Provider: string(provider)}
		}
	}

	return c, nil
}

func cacheExp(seconds int) imcache.Expiration {
	if expTime := time.Duration(seconds) * time.Second; expTime > 0 {
		return imcache.WithExpiration(expTime)
	}

	return defaultCacheExp
}

// Fetch fills the bundle's catalog blocks for the named podcast.
// Individual source failures are logged and leave their block nil,
// the resolver falls through to the next source.
func (c *Catalog) Fetch(ctx context.Context, name string, b *meta.Bundle) {
	if c.podchaser != nil {
		block, err := c.podchaser.Lookup(ctx, name)
		if err != nil {
			c.logger.Warn("podchaser lookup failed", zap.String("name", name), zap.Error(err))
		} else {
			b.Podchaser = block
		}
	}
	if c.index != nil {
		block, err := c.index.Lookup(ctx, name)
		if err != nil {
			c.logger.Warn("podcast index lookup failed", zap.String("name", name), zap.Error(err))
		} else {
			b.Index = block
		}
	}
	if c.podnews != nil {
		block, err := c.podnews.Lookup(ctx, name)
		if err != nil {
			c.logger.Warn("podnews lookup failed", zap.String("name", name), zap.Error(err))
		} else {
			b.Podnews = block
		}
	}
}
