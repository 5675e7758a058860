// Package config defines the report run configuration and how it is loaded.
//
// Conventions:
//   - New() returns defaults; Load layers a YAML file and LEAGUE_ env vars on top.
//   - CLI flags are applied by the caller after Load.
//   - Validate must pass before a run starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/ranking"
)

// Defaults.
const (
	DefaultOutBase    = "Liga_overview"
	DefaultTZ         = "Europe/Stockholm"
	DefaultTimeout    = 30 * time.Second
	DefaultPageSize   = 200
	DefaultMaxPlayers = 5000
	DefaultBaseURL    = "https://www.geoguessr.com"
	DefaultDumpDir    = "debug_json"
	DefaultRPS        = 5.0
)

// AuthEnv is the environment variable holding the session cookie.
const AuthEnv = "GEOGUESSR_NCFA"

// Config contains everything one report run needs.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Weeks holds raw week specs "LABEL|URLS_FILE|DEADLINE".
	Weeks []string `koanf:"weeks"`

	// OutBase is the workbook file name prefix.
	OutBase string `koanf:"out_base"`

	// TZ is the IANA zone deadlines are written in.
	TZ string `koanf:"tz"`

	// NCFA is the session cookie value for the scoring service.
	NCFA string `koanf:"ncfa"`

	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	RPS     float64       `koanf:"rps"`

	// Tie selects the rank shared by exact ties: average, dense, min, max.
	Tie string `koanf:"tie"`

	PageSize   int `koanf:"page_size"`
	MaxPlayers int `koanf:"max_players"`

	FetchPlayedAt   bool `koanf:"fetch_played_at"`
	KeepMissingTime bool `koanf:"keep_missing_time"`

	Debug    bool   `koanf:"debug"`
	DumpJSON bool   `koanf:"dump_json"`
	DumpDir  string `koanf:"dump_dir"`

	// MetricsFile receives a Prometheus textfile dump when set.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		OutBase:    DefaultOutBase,
		TZ:         DefaultTZ,
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		RPS:        DefaultRPS,
		Tie:        string(ranking.TieAverage),
		PageSize:   DefaultPageSize,
		MaxPlayers: DefaultMaxPlayers,
		DumpDir:    DefaultDumpDir,
	}
}

// Validate checks the configuration in the order a user would fix it:
// weeks, then credentials, then tuning values.
func (c *Config) Validate() error {
	if _, err := ParseWeekSpecs(c.Weeks); err != nil {
		return err
	}
	if strings.TrimSpace(c.NCFA) == "" {
		return fmt.Errorf("%w: set %s or pass --ncfa", ErrMissingAuth, AuthEnv)
	}
	if _, err := ranking.ParseTieMode(c.Tie); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	case c.MaxPlayers <= 0:
		return fmt.Errorf("%w: max players must be positive, got %d", ErrInvalidConfig, c.MaxPlayers)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	case c.RPS < 0:
		return fmt.Errorf("%w: rps must not be negative, got %g", ErrInvalidConfig, c.RPS)
	case strings.TrimSpace(c.OutBase) == "":
		return fmt.Errorf("%w: out base must not be empty", ErrInvalidConfig)
	}
	return nil
}

// TieMode returns the validated tie mode.
func (c *Config) TieMode() ranking.TieMode {
	m, err := ranking.ParseTieMode(c.Tie)
	if err != nil {
		return ranking.TieAverage
	}
	return m
}

// ParseWeekSpecs reads "LABEL|URLS_FILE|DEADLINE" specs. The deadline part
// is optional; parts are trimmed and a leading "~/" expands to the home dir.
func ParseWeekSpecs(raw []string) ([]model.WeekSpec, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: pass --week \"LABEL|URLS_FILE|DEADLINE\"", ErrNoWeeks)
	}

	out := make([]model.WeekSpec, 0, len(raw))
	for _, s := range raw {
		parts := strings.Split(s, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: %q, expected \"LABEL|URLS_FILE|DEADLINE(optional)\"", ErrBadWeekSpec, s)
		}
		w := model.WeekSpec{Label: parts[0], URLsPath: expandHome(parts[1])}
		if len(parts) >= 3 {
			w.Deadline = parts[2]
		}
		out = append(out, w)
	}
	return out, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
