package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/assemble"
	"github.com/starford/feedpost/internal/crosspost"
	"github.com/starford/feedpost/internal/microfeed"
	"github.com/starford/feedpost/internal/watch"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	Microfeed MicrofeedConfig   `yaml:"microfeed"`
	Publish   PublishConfig     `yaml:"publish"`
	Ledger    LedgerConfig      `yaml:"ledger"`
	Watch     WatchConfig       `yaml:"watch"`
	CrossPost CrossPostConfig   `yaml:"crosspost"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Microfeed.Validate(); err != nil {
		return fmt.Errorf("microfeed: %w", err)
	}
	if err := c.Publish.Validate(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := c.CrossPost.Validate(); err != nil {
		return fmt.Errorf("crosspost: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MicrofeedConfig locates the content service. URL and APIKey may be empty
// in the file and supplied by flags or environment instead.
type MicrofeedConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate checks the fields that are set.
func (c *MicrofeedConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Match(urlPattern).Error("must be an http(s) URL")),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Ready reports a configuration error when the service cannot be reached
// with the current settings.
func (c *MicrofeedConfig) Ready() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if len(missing) > 0 {
		return apperr.Configuration("microfeed " + strings.Join(missing, " and ") + " not set")
	}
	return nil
}

// PublishConfig controls how notes become items.
type PublishConfig struct {
	DefaultStatus     string   `yaml:"default_status"`
	ExtensionPrefixes []string `yaml:"extension_prefixes"`
	// AutoImage generates a cover when a note has no image.
	AutoImage      bool   `yaml:"auto_image"`
	ThumbnailStyle string `yaml:"thumbnail_style"`
	// StylesFile replaces the built-in thumbnail styles.
	StylesFile string `yaml:"styles_file"`
}

// Validate validates the publish configuration.
func (c *PublishConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultStatus, validation.Required,
			validation.In(string(microfeed.StatusPublished), string(microfeed.StatusUnpublished), string(microfeed.StatusUnlisted))),
		validation.Field(&c.ExtensionPrefixes, validation.Each(validation.Required)),
	)
}

// Status returns the default status as a typed value.
func (c *PublishConfig) Status() microfeed.Status {
	st, _ := microfeed.ParseStatus(c.DefaultStatus)
	return st
}

// LedgerConfig holds the SQLite publish ledger location. Relative paths are
// taken from the vault root. An empty path disables the ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Enabled returns true when a ledger path is configured.
func (c *LedgerConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Folder   string        `yaml:"folder"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// CrossPostConfig controls announcements of new items.
type CrossPostConfig struct {
	Enabled         bool             `yaml:"enabled"`
	Token           string           `yaml:"token"`
	BaseURL         string           `yaml:"base_url"`
	Format          crosspost.Format `yaml:"format"`
	IncludeHashtags bool             `yaml:"include_hashtags"`
	Hashtags        string           `yaml:"hashtags"`
}

// Validate validates the cross-post configuration.
func (c *CrossPostConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := c.Formatter().Validate(); err != nil {
		return err
	}
	if c.Token == "" {
		return fmt.Errorf("enabled but token is empty")
	}
	return nil
}

// Formatter returns the post formatter described by the config.
func (c *CrossPostConfig) Formatter() crosspost.Formatter {
	return crosspost.Formatter{
		Format:          c.Format,
		IncludeHashtags: c.IncludeHashtags,
		Hashtags:        c.Hashtags,
	}
}

var urlPattern = regexp.MustCompile(`^https?://[^\s/]+`)

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			Path: ".",
		},
		Microfeed: MicrofeedConfig{
			Timeout: 60 * time.Second,
		},
		Publish: PublishConfig{
			DefaultStatus:     string(microfeed.StatusPublished),
			ExtensionPrefixes: []string{assemble.DefaultExtensionPrefix},
			AutoImage:         true,
		},
		Ledger: LedgerConfig{
			Path: ".feedpost.db",
		},
		Watch: WatchConfig{
			Debounce: watch.DefaultDebounce,
		},
		CrossPost: CrossPostConfig{
			Format: crosspost.FormatTitleWithLink,
		},
	}
}
