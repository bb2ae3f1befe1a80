package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "firecrawl_api_key: fc-test\nx_bearer_token: xb-test\nmedia_dir: /tmp/media\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	if err := readFile(path, cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.FirecrawlAPIKey != "fc-test" || cfg.XBearerToken != "xb-test" || cfg.MediaDir != "/tmp/media" {
		t.Errorf("unexpected config: %#v", cfg)
	}
}

func TestReadFileMissing(t *testing.T) {
	cfg := &Config{}
	if err := readFile(filepath.Join(t.TempDir(), "nope.yaml"), cfg); err != nil {
		t.Errorf("missing config file should not error: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "fc-env")
	t.Setenv("X_BEARER_TOKEN", "xb-env")
	t.Setenv("SCRAPEMM_MEDIA_DIR", "/env/media")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.FirecrawlAPIKey != "fc-env" {
		t.Errorf("unexpected firecrawl key: %q", cfg.FirecrawlAPIKey)
	}
	if cfg.XBearerToken != "xb-env" {
		t.Errorf("unexpected bearer token: %q", cfg.XBearerToken)
	}
	if cfg.MediaDir != "/env/media" {
		t.Errorf("unexpected media dir: %q", cfg.MediaDir)
	}
}
