package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"directory-scraper/config"
	"directory-scraper/db"
	"directory-scraper/export"
	"directory-scraper/fetcher"
	"directory-scraper/notify"
	"directory-scraper/parser"
	"directory-scraper/scraper"
	"directory-scraper/sheets"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// sinkTimeout bounds the exports that follow the CSV write
const sinkTimeout = 2 * time.Minute

// app holds the configuration and the optional sinks shared by every run
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	db       *db.DB
	sheets   *sheets.Writer
	telegram *notify.Telegram

	newBrowser func(cfg *config.Config, log logrus.FieldLogger) (fetcher.Browser, error)
}

// newApp connects the configured sinks. A sink that cannot be set up is
// disabled with a warning; the CSV is always written.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) *app {
	a := &app{cfg: cfg, log: log, newBrowser: newBrowser}

	if cfg.Database.URL != "" {
		database, err := db.NewDB(ctx, cfg.Database.URL, log)
		if err != nil {
			log.Warnf("Database disabled: %v", err)
		} else {
			a.db = database
		}
	}

	if cfg.Sheets.SpreadsheetURL != "" {
		writer, err := sheets.NewWriter(ctx, cfg.Sheets.SpreadsheetURL, cfg.Sheets.CredentialsPath, log)
		if err != nil {
			log.Warnf("Google Sheets export disabled: %v", err)
		} else {
			a.sheets = writer
		}
	}

	if cfg.Telegram.ChatID != 0 {
		bot, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Warnf("Telegram notifications disabled: %v", err)
		} else {
			a.telegram = bot
		}
	}

	return a
}

// Close releases the sinks
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warnf("Failed to close database: %v", err)
		}
	}
}

// newBrowser starts the configured page fetcher
func newBrowser(cfg *config.Config, log logrus.FieldLogger) (fetcher.Browser, error) {
	switch cfg.Browser.Backend {
	case config.BackendColly:
		return fetcher.NewCollyBrowser(fetcher.CollyOptions{
			UserAgent:      cfg.Browser.UserAgent,
			RequestTimeout: cfg.Timeouts.Navigation.Duration,
		}), nil
	default:
		browser, err := fetcher.NewRodBrowser(fetcher.RodOptions{
			Headless:          cfg.Browser.Headless,
			Bin:               cfg.Browser.Bin,
			UserDataDir:       cfg.Browser.UserDataDir,
			NavigationTimeout: cfg.Timeouts.Navigation.Duration,
			NetworkIdle:       cfg.Timeouts.NetworkIdle.Duration,
		}, log)
		if err != nil {
			return nil, err
		}
		return browser, nil
	}
}

// crawlerOptions maps the configuration onto the crawler
func crawlerOptions(cfg *config.Config) scraper.Options {
	return scraper.Options{
		ListingLinks: cfg.Selectors.ListingLinks,
		NextButton:   cfg.Selectors.NextButton,
		Ready:        cfg.Selectors.Ready,
		ReadyTimeout: cfg.Timeouts.Ready.Duration,
		Detail: parser.DetailOptions{
			Paragraphs:       cfg.Selectors.Description,
			DescriptionLabel: cfg.Extract.DescriptionLabel,
			Anchors:          cfg.Selectors.Homepage,
			HomepageMarker:   cfg.Extract.HomepageMarker,
		},
		ExcludeLinks: cfg.ExcludeLinks,
		MaxPages:     cfg.MaxPages,
	}
}

// runOnce performs one crawl and writes its records. The CSV is written even
// when the crawl fails part way; the crawl error is returned afterwards.
func (a *app) runOnce(ctx context.Context, runID uuid.UUID) error {
	log := a.log.WithField("run", runID.String())
	started := time.Now()

	browser, err := a.newBrowser(a.cfg, log)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warnf("Failed to close browser: %v", err)
		}
	}()

	crawler, err := scraper.NewCrawler(browser, crawlerOptions(a.cfg), log)
	if err != nil {
		return err
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	a.startRun(sinkCtx, runID, log)

	result, crawlErr := crawler.Run(ctx, a.cfg.StartURL)
	if crawlErr != nil {
		log.Errorf("Crawl stopped: %v", crawlErr)
	}

	csv := export.NewCSVWriter(a.cfg.Output)
	if err := csv.WriteRecords(result.Records); err != nil {
		return errors.Join(crawlErr, err)
	}
	log.WithField("records", len(result.Records)).Infof("Data saved to %s", csv.Path())

	a.export(sinkCtx, runID, result, crawlErr, log)

	a.notify(notify.Summary{
		StartURL: a.cfg.StartURL,
		Output:   csv.Path(),
		Pages:    result.Pages,
		Links:    result.Links,
		Records:  len(result.Records),
		Filtered: result.Filtered,
		Failed:   result.Failed,
		Duration: time.Since(started),
		Err:      crawlErr,
	}, log)

	return crawlErr
}

func (a *app) startRun(ctx context.Context, runID uuid.UUID, log logrus.FieldLogger) {
	if a.db == nil {
		return
	}
	if _, err := a.db.CreateRun(ctx, runID, a.cfg.StartURL); err != nil {
		log.Warnf("Failed to record run start: %v", err)
	}
}

// export hands the records to the database and Sheets sinks
func (a *app) export(ctx context.Context, runID uuid.UUID, result *scraper.Result, crawlErr error, log logrus.FieldLogger) {
	if a.db != nil {
		if err := a.db.SaveRecords(ctx, runID, result.Records); err != nil {
			log.Warnf("Failed to save records to database: %v", err)
		}
		stats := db.RunStats{
			Pages:    result.Pages,
			Links:    result.Links,
			Filtered: result.Filtered,
			Failed:   result.Failed,
			Records:  len(result.Records),
		}
		if err := a.db.FinishRun(ctx, runID, stats, crawlErr); err != nil {
			log.Warnf("Failed to record run result: %v", err)
		}
	}

	if a.sheets != nil {
		sheetName := fmt.Sprintf("Crawl_%s", time.Now().Format("20060102_150405"))
		if _, err := a.sheets.CreateSheetAndWriteRecords(ctx, sheetName, a.cfg.StartURL, result.Records); err != nil {
			log.Warnf("Failed to write to Google Sheets: %v", err)
		}
	}
}

func (a *app) notify(summary notify.Summary, log logrus.FieldLogger) {
	if a.telegram == nil {
		return
	}
	if err := a.telegram.Notify(summary); err != nil {
		log.Warnf("Failed to send Telegram notification: %v", err)
	}
}
