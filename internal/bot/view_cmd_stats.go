package bot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit/markup"
	"github.com/samber/lo"
)

// *metrics.Metrics подходит
type StatsProvider interface {
	Stats() map[string]any
}

func ViewCmdStats(provider StatsProvider) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.Sender, update tgbotapi.Update) error {
		stats := provider.Stats()

		keys := lo.Keys(stats)
		slices.Sort(keys)

		lines := lo.Map(keys, func(key string, _ int) string {
			return fmt.Sprintf("%s: %s", markup.Code(key), markup.EscapeForMarkdown(fmt.Sprint(stats[key])))
		})

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, "📊 *Статистика*\n\n"+strings.Join(lines, "\n"))
		reply.ParseMode = tgbotapi.ModeMarkdownV2

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}
