package notify

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is Telegram's limit on a single text message
const maxMessageLen = 4096

// Summary describes a finished crawl
type Summary struct {
	StartURL string
	Output   string
	Pages    int
	Links    int
	Records  int
	Filtered int
	Failed   int
	Duration time.Duration
	Err      error
}

// Telegram sends crawl summaries to one chat
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authorizes the bot token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify sends the summary, split into several messages when needed
func (t *Telegram) Notify(s Summary) error {
	for _, part := range splitMessage(FormatSummary(s), maxMessageLen) {
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, part)); err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}

// FormatSummary renders a summary as a plain text message
func FormatSummary(s Summary) string {
	var sb strings.Builder

	if s.Err != nil {
		sb.WriteString("❌ Crawl failed\n\n")
	} else {
		sb.WriteString("✅ Crawl completed\n\n")
	}
	sb.WriteString(fmt.Sprintf("Start URL: %s\n", s.StartURL))
	sb.WriteString(fmt.Sprintf("Pages: %d\n", s.Pages))
	sb.WriteString(fmt.Sprintf("Links found: %d\n", s.Links))
	sb.WriteString(fmt.Sprintf("Records: %d\n", s.Records))
	if s.Filtered > 0 {
		sb.WriteString(fmt.Sprintf("Skipped links: %d\n", s.Filtered))
	}
	if s.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed visits: %d\n", s.Failed))
	}
	if s.Duration > 0 {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", s.Duration.Round(time.Second)))
	}
	if s.Output != "" {
		sb.WriteString(fmt.Sprintf("Saved to: %s\n", s.Output))
	}
	if s.Err != nil {
		sb.WriteString(fmt.Sprintf("\nError: %v\n", s.Err))
	}

	return sb.String()
}

// splitMessage splits text into chunks of at most maxLen bytes, preferring
// line boundaries
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 > maxLen && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
		for len(line) >= maxLen {
			parts = append(parts, line[:maxLen])
			line = line[maxLen:]
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
