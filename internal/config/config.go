package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"shiftsync/internal/model"
)

// CategoryConfig controls one synced shift category.
type CategoryConfig struct {
	// Enabled toggles syncing for the category. Disabling a category makes
	// the next run remove every event it previously created.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// ColorID is the calendar color assigned to the category's events
	// (Google Calendar color IDs "1"–"11").
	ColorID string `yaml:"color_id" json:"color_id"`
}

// NotifyConfig holds SMTP notification settings. The SMTP password comes
// from the environment, not from this file.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Email    string `yaml:"email" json:"email"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration. Credentials and other
// secrets never live here; see Secrets.
type Config struct {
	// GridURL is the scheduling viewer's login page.
	GridURL string `yaml:"grid_url" json:"grid_url"`

	// ViewName selects the schedule view to open after login (matched
	// against the sidebar view links by substring).
	ViewName string `yaml:"view_name" json:"view_name"`

	// Timezone is the IANA timezone the grid renders in (e.g. "America/Chicago").
	// Shift instants are naive local times in this zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule (e.g. "0 */6 * * *") for
	// periodic sync runs when not running with -once.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LookaheadDays bounds how far into the future the personal feed is
	// consulted for committed shifts.
	LookaheadDays int `yaml:"lookahead_days" json:"lookahead_days"`

	// MinRestHours is the minimum gap required between the end of one
	// shift and the start of the next for an open shift to be workable.
	MinRestHours int `yaml:"min_rest_hours" json:"min_rest_hours"`

	// NamePattern is a case-insensitive regular expression matched against
	// claimed grid cells to detect the user's own picked-up shifts. Empty
	// disables picked-shift detection.
	NamePattern string `yaml:"name_pattern" json:"name_pattern"`

	// FeedURL is the personal iCal subscription URL. May be overridden by
	// the environment for setups that treat it as a secret.
	FeedURL string `yaml:"feed_url" json:"feed_url"`

	// CalendarID is the target calendar (e.g. "primary" or a calendar address).
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`

	// StatePath is where the sync snapshot is persisted.
	StatePath string `yaml:"state_path" json:"state_path"`

	// CacheDir backs the feed fetcher's HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ArtifactDir, when set, enables debug screenshots and HTML dumps from
	// the browser session.
	ArtifactDir string `yaml:"artifact_dir" json:"artifact_dir"`

	// Headless controls the browser mode; recon runs force it off.
	Headless bool `yaml:"headless" json:"headless"`

	// Listen is the status server address; empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	// Categories holds per-category sync settings keyed by category name.
	Categories map[string]CategoryConfig `yaml:"categories" json:"categories"`

	Notify NotifyConfig `yaml:"notify" json:"notify"`

	// BasicAuth, if non-nil, protects all status endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		GridURL:       "https://lblite.lightning-bolt.com/login",
		ViewName:      "",
		Timezone:      "America/Chicago",
		RefreshCron:   "0 */6 * * *",
		LookaheadDays: 60,
		MinRestHours:  8,
		FeedURL:       "",
		CalendarID:    "primary",
		StatePath:     "./var/state/synced_shifts.json",
		CacheDir:      "./var/feed-cache",
		Headless:      true,
		Listen:        "",
		Categories: map[string]CategoryConfig{
			string(model.CategoryOpen):      {Enabled: true, ColorID: "2"},
			string(model.CategoryPicked):    {Enabled: true, ColorID: "10"},
			string(model.CategoryScheduled): {Enabled: false, ColorID: "8"},
		},
		Notify: NotifyConfig{Port: 587},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.GridURL == "" {
		c.GridURL = def.GridURL
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = def.LookaheadDays
	}
	if c.MinRestHours < 0 {
		c.MinRestHours = def.MinRestHours
	}
	if c.CalendarID == "" {
		c.CalendarID = def.CalendarID
	}
	if c.StatePath == "" {
		c.StatePath = def.StatePath
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Categories == nil {
		c.Categories = map[string]CategoryConfig{}
	}
	for name, defCat := range def.Categories {
		cat, ok := c.Categories[name]
		if !ok {
			c.Categories[name] = defCat
			continue
		}
		if cat.ColorID == "" {
			cat.ColorID = defCat.ColorID
			c.Categories[name] = cat
		}
	}
	if c.Notify.Port == 0 {
		c.Notify.Port = 587
	}
}

// Category returns the settings for the given category, falling back to
// defaults for unknown names.
func (c *Config) Category(cat model.Category) CategoryConfig {
	if cc, ok := c.Categories[string(cat)]; ok {
		return cc
	}
	return CategoryConfig{}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (0600 perms, parent directory created) and returned.
//   - Otherwise the file is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".shiftsync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
