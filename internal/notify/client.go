// Package notify mirrors session messages and analysis reports to a Telegram
// chat. Delivery is retried with a linear backoff.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/observable"
	"github.com/rewired-gh/seizurescope/internal/session"
)

// sender is the part of the bot API the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	sleep          func(time.Duration)
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		sleep:          time.Sleep,
	}, nil
}

// Send delivers text as a plain message.
func (c *Client) Send(text string) error {
	return c.send(escapeMarkdownV2(text))
}

// SendReport delivers a summary of a completed analysis of source.
func (c *Client) SendReport(source string, report *session.Report) error {
	return c.send(formatReport(source, report))
}

// Attach mirrors every modal opened in s to the chat. It returns a function
// that stops mirroring.
func (c *Client) Attach(s *session.Session) func() {
	filter := observable.Filter{Store: session.RootStoreName, PathPrefix: "data." + session.ModalKey + "." + session.IsOpenKey}
	return s.Subscribe(filter, func(e session.Event) {
		changed, ok := e.(session.ModalChanged)
		if !ok {
			return
		}
		if open, _ := changed.NewValue.(bool); !open {
			return
		}
		if err := c.Send("⚠️ " + s.Modal().Message); err != nil {
			logger.Error("Failed to mirror modal message: %v", err)
		}
	})
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			c.sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport formats an analysis report into a MarkdownV2 message
func formatReport(source string, r *session.Report) string {
	var b strings.Builder

	b.WriteString("🧠 *EEG analysis complete*\n\n")
	if source != "" {
		fmt.Fprintf(&b, "📄 File: %s\n", escapeMarkdownV2(source))
	}
	fmt.Fprintf(&b, "🔢 Sequences: %d\n", r.Sequences)
	fmt.Fprintf(&b, "⚡ Seizure events: *%d*\n", r.Stats.TotalEvents)
	if r.Stats.TotalEvents > 0 {
		avg := escapeMarkdownV2(fmt.Sprintf("%.2fs", r.Stats.AverageSeizureTime))
		fmt.Fprintf(&b, "⏱ Total seizure time: %ds \\(avg %s\\)\n", r.Stats.TotalSeizureTime, avg)
	}
	if r.FailedBatches > 0 {
		fmt.Fprintf(&b, "❗ Failed batches: %d\n", r.FailedBatches)
	}

	for i, ev := range r.Stats.Events {
		if i == 10 {
			fmt.Fprintf(&b, "\n…and %d more\n", len(r.Stats.Events)-i)
			break
		}
		if i == 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\\. sequence %d, %ds\n", i+1, ev.SequenceIndex, ev.DurationInSeconds)
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
