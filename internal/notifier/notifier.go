package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/chunk"
	"github.com/kovalyov-valentin/news-easy-bot/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Запас сверх retry_after, который просит телеграм
const retryMargin = 500 * time.Millisecond

// Клиент телеграма, *tgbotapi.BotAPI подходит
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	bot Sender
	// Пауза между сообщениями, чтобы не упираться во flood control
	pause time.Duration
	// Сколько раз всего пробуем отправить одно сообщение
	attempts int
	metrics  *metrics.Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

func New(bot Sender, pause time.Duration, attempts int, m *metrics.Metrics) *Notifier {
	if attempts < 1 {
		attempts = 1
	}

	return &Notifier{
		bot:      bot,
		pause:    pause,
		attempts: attempts,
		metrics:  m,
		sleep:    sleepCtx,
	}
}

// Deliver sends chunks one by one as plain text without link previews.
func (n *Notifier) Deliver(ctx context.Context, chatID int64, chunks []string) error {
	for i, text := range chunks {
		// Страховка от слишком длинных кусков
		for _, part := range chunk.Split(text, chunk.TelegramLimit) {
			if err := n.Send(ctx, chatID, part); err != nil {
				return fmt.Errorf("deliver chunk %d of %d: %w", i+1, len(chunks), err)
			}

			if err := n.sleep(ctx, n.pause); err != nil {
				return err
			}
		}
	}

	return nil
}

// Send sends one message and retries when Telegram asks to slow down.
func (n *Notifier) Send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := n.bot.Send(msg)
		if err == nil {
			n.metrics.IncrementMessagesSent()
			return nil
		}

		wait, ok := retryAfter(err)
		if !ok || attempt >= n.attempts {
			return err
		}

		log.Warn().
			Err(err).
			Int64("chat_id", chatID).
			Int("attempt", attempt).
			Dur("retry_after", wait).
			Msg("telegram rate limit, retrying")
		n.metrics.IncrementSendRetries()

		if err := n.sleep(ctx, wait+retryMargin); err != nil {
			return err
		}
	}
}

func retryAfter(err error) (time.Duration, bool) {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) || tgErr.RetryAfter <= 0 {
		return 0, false
	}

	return time.Duration(tgErr.RetryAfter) * time.Second, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
