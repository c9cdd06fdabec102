package application

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/chart/render"
	"xp-dashboard/internal/profile/domain"
)

// DefaultRankingLimit is the number of projects shown in the ranking chart.
const DefaultRankingLimit = 10

// ChartConfig holds the options of every dashboard chart.
type ChartConfig struct {
	Timeline   render.LineOptions     `yaml:"timeline"`
	Cumulative render.LineOptions     `yaml:"cumulative"`
	Donut      render.PassFailOptions `yaml:"donut"`
	Pie        render.PassFailOptions `yaml:"pie"`
	Projects   render.BarOptions      `yaml:"projects"`
}

// Config tunes how a dashboard is aggregated and drawn.
type Config struct {
	Root         string         `yaml:"root"`
	Granularity  xp.Granularity `yaml:"granularity"`
	RankingLimit int            `yaml:"ranking_limit"`
	RecentLimit  int            `yaml:"recent_limit"`
	Charts       ChartConfig    `yaml:"charts"`
}

// DefaultConfig returns the built-in dashboard configuration.
func DefaultConfig() Config {
	return Config{
		Root:         domain.DefaultRoot,
		Granularity:  xp.GranularityDay,
		RankingLimit: DefaultRankingLimit,
		RecentLimit:  xp.DefaultRecentLimit,
		Charts: ChartConfig{
			Timeline:   render.DefaultLineOptions(),
			Cumulative: render.DefaultCumulativeOptions(),
			Donut:      render.DefaultDonutOptions(),
			Pie:        render.DefaultPieOptions(),
			Projects:   render.DefaultBarOptions(),
		},
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. An empty
// path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("application: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("application: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration and fills zero limits with defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("application: nil config")
	}
	if c.Granularity == "" {
		c.Granularity = xp.GranularityDay
	}
	if !c.Granularity.IsValid() {
		return fmt.Errorf("application: %w: %q", xp.ErrInvalidGranularity, c.Granularity)
	}
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("application: %w", err)
	}
	if c.RankingLimit <= 0 {
		c.RankingLimit = DefaultRankingLimit
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = xp.DefaultRecentLimit
	}
	return nil
}

// Rules returns the category rules of the configured root.
func (c Config) Rules() domain.CategoryRules {
	return domain.CategoryRules{Root: c.Root}
}
