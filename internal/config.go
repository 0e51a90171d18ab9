package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/depari/srules/internal/search"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Corpus CorpusConfig      `yaml:"corpus"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Search SearchConfig      `yaml:"search"`
	Assets AssetsConfig      `yaml:"assets"`
	Prefs  PrefsConfig       `yaml:"prefs"`
	GitHub GitHubConfig      `yaml:"github"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Corpus.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.GitHub.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CorpusConfig holds the path to the markdown rule corpus.
type CorpusConfig struct {
	Path string `yaml:"path"`
	// CacheSize bounds the parsed-rule LRU; 0 selects the default.
	CacheSize int `yaml:"cache_size"`
}

// Validate validates the corpus configuration.
func (c *CorpusConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.CacheSize, validation.Min(0)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SearchConfig selects and tunes the query strategy.
type SearchConfig struct {
	// Provider is "fuzzy" (in-memory, typo tolerant) or "fts" (SQLite).
	Provider string `yaml:"provider"`
	// MinScore drops weak fuzzy hits. Zero keeps every positive match.
	MinScore float64 `yaml:"min_score"`
	// DebounceMS is the quiet period before a query runs; 0 selects the
	// default (300ms).
	DebounceMS int `yaml:"debounce_ms"`
	// InlineLimit caps quick-result responses; 0 selects the default (5).
	InlineLimit int `yaml:"inline_limit"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = search.ProviderFuzzy
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(search.ProviderFuzzy, search.ProviderFTS)),
		validation.Field(&c.DebounceMS, validation.Min(0)),
		validation.Field(&c.InlineLimit, validation.Min(0)),
	)
}

// AssetsConfig holds the directory where built artifacts (search index,
// rule history) are written and served from.
type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

// SearchIndexPath returns the full path of the search index artifact.
func (c *AssetsConfig) SearchIndexPath() string {
	return filepath.Join(c.Dir, search.IndexFileName)
}

// PrefsConfig holds the directory backing user preference storage
// (favorites, recent views).
type PrefsConfig struct {
	Dir string `yaml:"dir"`
	// RecentMax caps the recent-views list; 0 selects the default (10).
	RecentMax int `yaml:"recent_max"`
}

// GitHubConfig holds the corpus repository coordinates for the submission
// workflow. Owner and Repo empty disables submissions entirely; a missing
// Token degrades submissions to manual issue links.
type GitHubConfig struct {
	Owner      string `yaml:"owner"`
	Repo       string `yaml:"repo"`
	Token      string `yaml:"token"`
	BaseBranch string `yaml:"base_branch"`
	ContentDir string `yaml:"content_dir"`
}

// Enabled reports whether the submission workflow is configured.
func (c *GitHubConfig) Enabled() bool {
	return c.Owner != "" && c.Repo != ""
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Corpus: CorpusConfig{
			Path: "./rules",
		},
		SQLite: SQLiteConfig{
			Path: "./srules.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Search: SearchConfig{
			Provider: search.ProviderFuzzy,
		},
		Assets: AssetsConfig{
			Dir: "./assets",
		},
		Prefs: PrefsConfig{
			Dir: "./prefs",
		},
		GitHub: GitHubConfig{
			BaseBranch: "main",
			ContentDir: "rules",
		},
	}
}
