package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"directory-scraper/config"
	"directory-scraper/scheduler"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var flags struct {
	configPath string
	url        string
	output     string
	backend    string
	logLevel   string
	headless   bool
	maxPages   int
	every      time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "directory-scraper",
	Short: "directory-scraper crawls a paginated directory and writes every entry to CSV.",
	Long: `directory-scraper opens the directory listing in a browser, follows the
next-page control until it is exhausted, visits every listed entry and
extracts its description and homepage link. Results are written to a CSV file
and optionally to postgres, Google Sheets and a Telegram chat.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	f.StringVarP(&flags.url, "url", "u", "", "Listing page to start from")
	f.StringVarP(&flags.output, "output", "o", "", "CSV file to write")
	f.StringVar(&flags.backend, "backend", "", "Page fetcher: rod (real browser) or colly (static HTML)")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.BoolVar(&flags.headless, "headless", false, "Run the browser without a window")
	f.IntVar(&flags.maxPages, "max-pages", 0, "Stop after this many listing pages (0 = all)")
	f.DurationVar(&flags.every, "every", 0, "Repeat the crawl on this interval until interrupted")
}

// ExecuteContext runs the root command and exits non-zero on failure
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logrus.New()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("Failed to load .env: %v", err)
	}

	cfg, err := loadConfig(flags.configPath, cmd.Flags().Changed("config"), log)
	if err != nil {
		return err
	}
	applyFlags(cfg, cmd.Flags())
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := configureLogger(log, cfg.Logging); err != nil {
		return err
	}

	app := newApp(ctx, cfg, log)
	defer app.Close()

	if cfg.Schedule.Every.Duration <= 0 {
		return app.runOnce(ctx, uuid.New())
	}

	log.WithField("every", cfg.Schedule.Every.Duration).Info("Running on a schedule")
	s := scheduler.NewScheduler(ctx, cfg.Schedule.Every.Duration, app.runOnce, log)
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

// loadConfig reads the config file. A missing file falls back to the
// defaults unless the path was given explicitly.
func loadConfig(path string, explicit bool, log logrus.FieldLogger) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		log.Debug("Config file not found. Using default configuration.")
		return config.GetDefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Debug("Loaded configuration")
	return cfg, nil
}

// applyFlags overrides config values with the flags set on the command line
func applyFlags(cfg *config.Config, set *pflag.FlagSet) {
	if set.Changed("url") {
		cfg.StartURL = flags.url
	}
	if set.Changed("output") {
		cfg.Output = flags.output
	}
	if set.Changed("backend") {
		cfg.Browser.Backend = flags.backend
	}
	if set.Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if set.Changed("headless") {
		cfg.Browser.Headless = flags.headless
	}
	if set.Changed("max-pages") {
		cfg.MaxPages = flags.maxPages
	}
	if set.Changed("every") {
		cfg.Schedule.Every = config.DurationFrom(flags.every)
	}
}

// configureLogger applies level and format to log
func configureLogger(log *logrus.Logger, cfg config.LoggingConfig) error {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
