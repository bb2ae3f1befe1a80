// Package config loads credentials and options from the user config
// directory, with environment variables taking precedence.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const appName = "scrapemm"

// Config holds the credentials and options consumed by the retriever. All
// fields are optional; retrieval paths requiring a missing credential are
// simply not wired up.
type Config struct {
	// FirecrawlAPIKey authenticates against the Firecrawl scraping service.
	FirecrawlAPIKey string `yaml:"firecrawl_api_key"`
	// XBearerToken authenticates against the X API v2. Requires "Basic"
	// access; "Free" access does not include reading posts.
	XBearerToken string `yaml:"x_bearer_token"`
	// MediaDir, when set, enables eager media downloads into that directory.
	MediaDir string `yaml:"media_dir"`
}

// Load reads config.yaml from the user config directory, then applies
// environment overrides (FIRECRAWL_API_KEY, X_BEARER_TOKEN,
// SCRAPEMM_MEDIA_DIR). A missing config file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	path, err := Path()
	if err == nil {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		cfg.FirecrawlAPIKey = v
	}
	if v := os.Getenv("X_BEARER_TOKEN"); v != "" {
		cfg.XBearerToken = v
	}
	if v := os.Getenv("SCRAPEMM_MEDIA_DIR"); v != "" {
		cfg.MediaDir = v
	}

	return cfg, nil
}

// Path returns the location of the config file, whether or not it exists.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, appName, "config.yaml"), nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}

	return nil
}
