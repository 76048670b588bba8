package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-easy-bot/internal/digest"
	"github.com/rs/zerolog/log"
)

const (
	msgCollectingRecent = "⏳ Збираю свіжі новини..."
	msgCollectingToday  = "⏳ Збираю новини за сьогодні..."
	msgDone             = "✅ Готово."
	msgEmpty            = "⚠️ Порожній результат."
	msgFailed           = "⚠️ Сталася помилка під час формування списку новин."
)

// Собирает дайджест, *digest.Service подходит
type Digester interface {
	Run(ctx context.Context, mode digest.Mode) ([]string, error)
}

// Отправляет готовые куски в чат, *notifier.Notifier подходит
type Delivery interface {
	Deliver(ctx context.Context, chatID int64, chunks []string) error
}

// ViewCmdNews builds a digest for mode and delivers it to the chat that
// asked. Pipeline failures are reported to the user and never returned, so
// the generic "internal error" reply is reserved for Telegram failures.
func ViewCmdNews(digester Digester, delivery Delivery, mode digest.Mode) botkit.ViewFunc {
	collecting := msgCollectingRecent
	if mode == digest.ModeToday {
		collecting = msgCollectingToday
	}

	return func(ctx context.Context, bot botkit.Sender, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID
		logger := log.With().Int64("chat_id", chatID).Stringer("mode", mode).Logger()

		if err := reply(bot, chatID, collecting); err != nil {
			return err
		}

		chunks, err := digester.Run(ctx, mode)
		switch {
		case errors.Is(err, digest.ErrEmptyDigest):
			if err := reply(bot, chatID, emptyText(err)); err != nil {
				return err
			}
			return reply(bot, chatID, msgDone)
		case err != nil:
			logger.Error().Err(err).Msg("failed to build digest")
			return reply(bot, chatID, msgFailed)
		}

		if err := delivery.Deliver(ctx, chatID, chunks); err != nil {
			logger.Error().Err(err).Int("chunks", len(chunks)).Msg("failed to deliver digest")
			return reply(bot, chatID, msgFailed)
		}

		logger.Info().Int("chunks", len(chunks)).Msg("digest delivered")

		return reply(bot, chatID, msgDone)
	}
}

// Пустой результат дополняем списком источников, которые не ответили
func emptyText(err error) string {
	var empty *digest.EmptyDigestError
	if errors.As(err, &empty) {
		if footer := digest.FormatFailed(empty.Failed); footer != "" {
			return msgEmpty + "\n\n" + footer
		}
	}
	return msgEmpty
}

func reply(bot botkit.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	_, err := bot.Send(msg)
	return err
}
