package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/samber/lo"
)

type SourceLister interface {
	Sources() []model.SourceInfo
}

func ViewCmdListSources(lister SourceLister) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.Sender, update tgbotapi.Update) error {
		sources := lister.Sources()

		var (
			// Складываем в нее сформатированные тексты с метаинформацией об источниках
			sourceInfos = lo.Map(sources, func(source model.SourceInfo, _ int) string {
				return formatSource(source)
			})
			msgText = fmt.Sprintf(
				"Список джерел \\(всього %d\\):\n\n%s",
				len(sources),
				strings.Join(sourceInfos, "\n\n"),
			)
		)

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, msgText)
		reply.ParseMode = tgbotapi.ModeMarkdownV2
		reply.DisableWebPagePreview = true

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}

// Вывод форматированной информации об источниках
func formatSource(source model.SourceInfo) string {
	text := fmt.Sprintf("🌐 %s\nID: %s", markup.Bold(source.Name), markup.Code(string(source.ID)))
	if source.URL != "" {
		text += "\nURL: " + markup.EscapeForMarkdown(source.URL)
	}
	return text
}
