package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Provider is an external metadata provider ID.
type Provider string

const (
	// ProviderPodchaser is the Podchaser catalog provider ID.
	ProviderPodchaser Provider = "podchaser"
	// ProviderPodcastIndex is the Podcast Index catalog provider ID.
	ProviderPodcastIndex Provider = "podcastindex"
	// ProviderPodnews is the Podnews rating provider ID.
	ProviderPodnews Provider = "podnews"
)

// Config is a struct representation of the TOML configuration file.
type Config struct {
	// HTTP is the "http" configuration section.
	HTTP HTTP `toml:"http"`
	// Release is the "release" configuration section.
	Release Release `toml:"release"`
	// DescriptionReplacements are applied to resolved descriptions, in order.
	DescriptionReplacements []Replacement `toml:"description_replacements"`
	// Sources is a mapping of used metadata providers and their configuration, keyed by their ID.
	Sources map[Provider]map[string]interface{} `toml:"sources"`
}

// HTTP is an HTTP configuration section of the configuration file.
type HTTP struct {
	// Host is the host string, used for http.ListenAndServe.
	Host string `toml:"host"`
}

// Release is the release handling section of the configuration file.
type Release struct {
	// CleanName is a regular expression whose first group extracts the podcast
	// name from a decorated release folder name, can be empty.
	CleanName string `toml:"clean_name"`
	// StorePath is the relative or absolute path of the release snapshot store file.
	StorePath string `toml:"store_path"`
	// OmitFooter drops the attribution footer from rendered descriptions.
	OmitFooter bool `toml:"omit_footer"`
	// WatchDir is a directory of release folders to watch in serve mode, can be empty.
	WatchDir string `toml:"watch_dir"`
}

// Replacement is one literal description replacement.
type Replacement struct {
	// Pattern is the literal text to replace.
	Pattern string `toml:"pattern"`
	// ReplaceWith is the replacement text, can be empty.
	ReplaceWith string `toml:"replace_with"`
}

// Parse parses the configuration from a file.
func Parse(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(filepath.Clean(path), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseWithDefaults parses the configuration from a file and fills absent
// values with defaults. A missing file yields the defaults outright.
func ParseWithDefaults(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}

		cfg = &Config{}
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = ":8085"
	}
	if cfg.Release.CleanName == "" {
		cfg.Release.CleanName = `^(.*?)\s*\(`
	}
	if cfg.Release.StorePath == "" {
		cfg.Release.StorePath = "releases.json"
	}

	return cfg, nil
}
