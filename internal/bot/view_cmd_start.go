package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
)

const startText = "👋 Привіт! Доступні команди:\n" +
	"• /news_easy — новини за сьогодні та вчора (без превʼю)\n" +
	"• /news_today — тільки за сьогодні (без превʼю)\n" +
	"• /sources — список джерел"

func ViewCmdStart() botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.Sender, update tgbotapi.Update) error {
		reply := tgbotapi.NewMessage(update.Message.Chat.ID, startText)
		reply.DisableWebPagePreview = true

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}
