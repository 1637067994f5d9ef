package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/microfeed"
	pkgconfig "github.com/starford/feedpost/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Publish.Status() != microfeed.StatusPublished {
		t.Errorf("default status = %q", cfg.Publish.Status())
	}
	if !cfg.Ledger.Enabled() {
		t.Error("ledger should be on by default")
	}
}

func TestMicrofeedReady(t *testing.T) {
	cfg := MicrofeedConfig{}
	err := cfg.Ready()
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if !strings.Contains(err.Error(), "url and api_key") {
		t.Errorf("message = %q", err)
	}

	cfg.URL = "https://feed.example.com"
	if err := cfg.Ready(); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("err = %v, want missing api_key", err)
	}

	cfg.APIKey = "k"
	if err := cfg.Ready(); err != nil {
		t.Errorf("Ready: %v", err)
	}
}

func TestMicrofeedConfig_BadURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Microfeed.URL = "feed.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("URL without scheme should fail")
	}
}

func TestPublishConfig_InvalidStatus(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Publish.DefaultStatus = "draft"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown status should fail validation")
	}
}

func TestCrossPostConfig(t *testing.T) {
	cfg := CrossPostConfig{Format: "thread"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled cross-post should not be validated: %v", err)
	}

	cfg.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown format should fail")
	}

	cfg.Format = "title_only"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Fatalf("err = %v, want empty token error", err)
	}

	cfg.Token = "t"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("FEEDPOST_TEST_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
vault:
  path: /notes
microfeed:
  url: https://feed.example.com/
  api_key: ${FEEDPOST_TEST_KEY}
  timeout: 5s
publish:
  default_status: unlisted
  extension_prefixes: ["itunes:", "podcast:"]
  auto_image: false
ledger:
  path: ""
watch:
  folder: podcast
  debounce: 500ms
crosspost:
  enabled: true
  token: abc
  format: title_with_summary
  hashtags: "#go"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Microfeed.APIKey != "from-env" || cfg.Microfeed.Timeout != 5*time.Second {
		t.Errorf("microfeed = %+v", cfg.Microfeed)
	}
	if cfg.Publish.Status() != microfeed.StatusUnlisted || len(cfg.Publish.ExtensionPrefixes) != 2 || cfg.Publish.AutoImage {
		t.Errorf("publish = %+v", cfg.Publish)
	}
	if cfg.Ledger.Enabled() {
		t.Error("empty ledger path should disable the ledger")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond || cfg.Watch.Folder != "podcast" {
		t.Errorf("watch = %+v", cfg.Watch)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg)
	if err != nil || found {
		t.Fatalf("LoadOptional = %v, %v", found, err)
	}
	if cfg.Vault.Path != "." {
		t.Error("defaults should be untouched")
	}
}
