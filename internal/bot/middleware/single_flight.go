package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
	"github.com/rs/zerolog/log"
)

const msgBusy = "⏳ Попередній запит ще виконується…"

// SingleFlight lets one command run per chat at a time. A command arriving
// while another is running gets a busy reply and is dropped.
func SingleFlight(registry *botkit.InflightRegistry, next botkit.ViewFunc) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.Sender, update tgbotapi.Update) error {
		var (
			chatID = update.Message.Chat.ID
			cmd    = update.Message.Command()
		)

		release, ok := registry.Acquire(chatID, cmd)
		if !ok {
			running, _ := registry.Get(chatID)
			log.Info().
				Int64("chat_id", chatID).
				Str("cmd", cmd).
				Str("running", running.Command).
				Msg("command rejected, chat is busy")

			msg := tgbotapi.NewMessage(chatID, msgBusy)
			if _, err := bot.Send(msg); err != nil {
				return err
			}
			return nil
		}
		defer release()

		return next(ctx, bot, update)
	}
}
