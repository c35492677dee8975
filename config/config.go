package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// DefaultStartURL is the listing page crawled when no URL is configured
const DefaultStartURL = "https://www.adrevu.com/index.php?id=2"

// Supported browser backends
const (
	BackendRod   = "rod"
	BackendColly = "colly"
)

// Config is the full configuration of a crawl run
type Config struct {
	StartURL     string         `yaml:"start_url"`
	Output       string         `yaml:"output"`
	MaxPages     int            `yaml:"max_pages"`
	ExcludeLinks []string       `yaml:"exclude_links"`
	Browser      BrowserConfig  `yaml:"browser"`
	Selectors    SelectorConfig `yaml:"selectors"`
	Extract      ExtractConfig  `yaml:"extract"`
	Timeouts     TimeoutConfig  `yaml:"timeouts"`
	Logging      LoggingConfig  `yaml:"logging"`
	Schedule     ScheduleConfig `yaml:"schedule"`
	Database     DatabaseConfig `yaml:"database"`
	Sheets       SheetsConfig   `yaml:"sheets"`
	Telegram     TelegramConfig `yaml:"telegram"`
}

// BrowserConfig selects and tunes the page fetcher
type BrowserConfig struct {
	Backend     string `yaml:"backend"`
	Headless    bool   `yaml:"headless"`
	Bin         string `yaml:"bin"`
	UserDataDir string `yaml:"user_data_dir"`
	UserAgent   string `yaml:"user_agent"`
}

// SelectorConfig holds the CSS selectors the crawl depends on
type SelectorConfig struct {
	ListingLinks string `yaml:"listing_links"`
	NextButton   string `yaml:"next_button"`
	Description  string `yaml:"description"`
	Homepage     string `yaml:"homepage"`
	Ready        string `yaml:"ready"`
}

// ExtractConfig holds the text markers used on detail pages
type ExtractConfig struct {
	DescriptionLabel string `yaml:"description_label"`
	HomepageMarker   string `yaml:"homepage_marker"`
}

// TimeoutConfig bounds the browser waits
type TimeoutConfig struct {
	Ready       Duration `yaml:"ready"`
	NetworkIdle Duration `yaml:"network_idle"`
	Navigation  Duration `yaml:"navigation"`
}

// LoggingConfig configures the logrus logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScheduleConfig enables repeated runs when Every is non-zero
type ScheduleConfig struct {
	Every Duration `yaml:"every"`
}

// DatabaseConfig enables postgres persistence when URL is set
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SheetsConfig enables Google Sheets export when SpreadsheetURL is set
type SheetsConfig struct {
	SpreadsheetURL  string `yaml:"spreadsheet_url"`
	CredentialsPath string `yaml:"credentials_path"`
}

// TelegramConfig enables run notifications when ChatID is set
type TelegramConfig struct {
	ChatID int64  `yaml:"chat_id"`
	Token  string `yaml:"token"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns the configuration of the stock directory crawl
func GetDefaultConfig() *Config {
	return &Config{
		StartURL: DefaultStartURL,
		Output:   "scraped_data.csv",
		Browser: BrowserConfig{
			Backend:  BackendRod,
			Headless: false,
		},
		Selectors: SelectorConfig{
			ListingLinks: "table#table81 a",
			NextButton:   "a#nextButton",
			Description:  "p.MsoNormal",
			Homepage:     "a",
			Ready:        "body",
		},
		Extract: ExtractConfig{
			DescriptionLabel: "Description:",
			HomepageMarker:   "http",
		},
		Timeouts: TimeoutConfig{
			Ready:       DurationFrom(30 * time.Second),
			NetworkIdle: DurationFrom(500 * time.Millisecond),
			Navigation:  DurationFrom(60 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnv fills secrets from the environment when the file leaves them empty
func (c *Config) ApplyEnv() {
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if c.Telegram.Token == "" {
		c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
}

// Validate checks required fields and compiles every selector and pattern
func (c *Config) Validate() error {
	var errs []error

	if c.StartURL == "" {
		errs = append(errs, errors.New("start_url is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if c.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("max_pages must not be negative, got %d", c.MaxPages))
	}
	switch c.Browser.Backend {
	case BackendRod, BackendColly:
	default:
		errs = append(errs, fmt.Errorf("unknown browser backend %q", c.Browser.Backend))
	}

	selectors := map[string]string{
		"listing_links": c.Selectors.ListingLinks,
		"next_button":   c.Selectors.NextButton,
		"description":   c.Selectors.Description,
		"homepage":      c.Selectors.Homepage,
		"ready":         c.Selectors.Ready,
	}
	for name, sel := range selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			errs = append(errs, fmt.Errorf("selectors.%s %q: %w", name, sel, err))
		}
	}

	for _, pattern := range c.ExcludeLinks {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("exclude_links %q: %w", pattern, err))
		}
	}

	if c.Timeouts.Ready.Duration <= 0 {
		errs = append(errs, errors.New("timeouts.ready must be positive"))
	}

	return errors.Join(errs...)
}
