package middleware

import (
	"context"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
)

// AdminOnly passes the update to next only when it comes from one of
// adminIDs. With no admins configured the command is closed to everyone.
func AdminOnly(adminIDs []int64, next botkit.ViewFunc) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.Sender, update tgbotapi.Update) error {
		// Проверка на то, что тот кто отправил команду находится в списке администраторов
		if from := update.Message.From; from != nil && slices.Contains(adminIDs, from.ID) {
			return next(ctx, bot, update)
		}

		if _, err := bot.Send(tgbotapi.NewMessage(update.Message.Chat.ID, "⛔️ Немає прав для виконання цієї команди")); err != nil {
			return err
		}
		return nil
	}
}
