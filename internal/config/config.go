package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "singalong"

type Config struct {
	DataDir   string `koanf:"data_dir"`   // default: $XDG_DATA_HOME/singalong
	LyricsDir string `koanf:"lyrics_dir"` // default: <data_dir>/lyrics
	Database  string `koanf:"database"`   // default: <data_dir>/singalong.db

	Log           LogConfig           `koanf:"log"`
	Playback      PlaybackConfig      `koanf:"playback"`
	Lrclib        LrclibConfig        `koanf:"lrclib"`
	Redis         RedisConfig         `koanf:"redis"`
	Radio         RadioConfig         `koanf:"radio"`
	Notifications NotificationsConfig `koanf:"notifications"`
	MPRIS         MPRISConfig         `koanf:"mpris"`
}

// LogConfig controls the log file and its rotation.
type LogConfig struct {
	Level      string `koanf:"level"` // "debug", "info", "warn" or "error"
	File       string `koanf:"file"`  // default: <data_dir>/singalong.log
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// PlaybackConfig holds the engine settings applied at startup.
type PlaybackConfig struct {
	Volume      float64 `koanf:"volume"`       // 0.0-1.0 (default: 0.5)
	FadeSeconds int     `koanf:"fade_seconds"` // default: 15
	FadeEnabled bool    `koanf:"fade_enabled"`
	TickMS      int     `koanf:"tick_ms"` // progress tick period (default: 100)
}

// LrclibConfig configures the remote lyrics service.
type LrclibConfig struct {
	BaseURL        string `koanf:"base_url"`
	ClientID       string `koanf:"client_id"`
	TimeoutSeconds int    `koanf:"timeout_seconds"` // default: 15
}

// RedisConfig enables the shared lyrics cache when Addr is set.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	TTLHours int    `koanf:"ttl_hours"` // default: 168
}

// RadioConfig lists the configured internet radio stations.
type RadioConfig struct {
	Stations []Station `koanf:"stations"`
}

// Station is a named stream URL.
type Station struct {
	Title string `koanf:"title"`
	URL   string `koanf:"url"`
}

// NotificationsConfig toggles desktop notifications (default: on).
type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled"`
}

// MPRISConfig toggles the MPRIS D-Bus interface (default: on).
type MPRISConfig struct {
	Enabled *bool `koanf:"enabled"`
}

// Load reads the user config file and then ./config.toml, the latter
// winning, and applies defaults.
func Load() (*Config, error) {
	return LoadFiles(getConfigPaths()...)
}

// LoadFiles reads the given TOML files in order, later files overriding
// earlier ones. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Playback: PlaybackConfig{
			Volume:      0.5,
			FadeSeconds: 15,
			TickMS:      100,
		},
		Lrclib: LrclibConfig{
			TimeoutSeconds: 15,
		},
		Redis: RedisConfig{
			TTLHours: 7 * 24,
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.DataDir = expandPath(c.DataDir)
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, appName)
	}

	c.LyricsDir = expandPath(c.LyricsDir)
	if c.LyricsDir == "" {
		c.LyricsDir = filepath.Join(c.DataDir, "lyrics")
	}

	c.Database = expandPath(c.Database)
	if c.Database == "" {
		c.Database = filepath.Join(c.DataDir, appName+".db")
	}

	c.Log.File = expandPath(c.Log.File)
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, appName+".log")
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))

	c.Playback.Volume = min(max(c.Playback.Volume, 0), 1)
	if c.Playback.FadeSeconds <= 0 {
		c.Playback.FadeSeconds = 15
	}
	if c.Playback.TickMS <= 0 {
		c.Playback.TickMS = 100
	}

	c.Lrclib.BaseURL = strings.TrimSuffix(c.Lrclib.BaseURL, "/")
	if c.Lrclib.TimeoutSeconds <= 0 {
		c.Lrclib.TimeoutSeconds = 15
	}

	if c.Redis.TTLHours <= 0 {
		c.Redis.TTLHours = 7 * 24
	}

	stations := c.Radio.Stations[:0]
	for _, s := range c.Radio.Stations {
		s.Title = strings.TrimSpace(s.Title)
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		if s.Title == "" {
			s.Title = s.URL
		}
		stations = append(stations, s)
	}
	c.Radio.Stations = stations
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/singalong/config.toml
	if xdg.ConfigHome != "" {
		paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// FadeDuration returns the configured fade length.
func (c *Config) FadeDuration() time.Duration {
	return time.Duration(c.Playback.FadeSeconds) * time.Second
}

// TickInterval returns the progress tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Playback.TickMS) * time.Millisecond
}

// LrclibTimeout returns the remote lyrics request timeout.
func (c *Config) LrclibTimeout() time.Duration {
	return time.Duration(c.Lrclib.TimeoutSeconds) * time.Second
}

// RedisTTL returns how long shared lyrics stay cached.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLHours) * time.Hour
}

// HasRedisConfig returns true if the shared lyrics cache is configured.
func (c *Config) HasRedisConfig() bool {
	return c.Redis.Addr != ""
}

// NotificationsEnabled reports whether desktop notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// MPRISEnabled reports whether the MPRIS interface is on.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS.Enabled == nil || *c.MPRIS.Enabled
}

// Station returns the station with the given title, case-insensitively.
func (c *Config) Station(title string) (Station, bool) {
	for _, s := range c.Radio.Stations {
		if strings.EqualFold(s.Title, title) {
			return s, true
		}
	}
	return Station{}, false
}
