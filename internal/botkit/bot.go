package botkit

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Клиент телеграма, через который view отвечают пользователю
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Функция, которая реагирует на определенную команду.
// Update это любой эвент, который приходит от телеграма
type ViewFunc func(ctx context.Context, bot Sender, update tgbotapi.Update) error

type Bot struct {
	api Sender
	// Мапа команда -> view
	cmdViews map[string]ViewFunc
	// Сколько может выполняться одна команда
	cmdTimeout time.Duration
	// Ждем обработчики при остановке
	handlers sync.WaitGroup
}

func New(api Sender, cmdTimeout time.Duration) *Bot {
	return &Bot{
		api:        api,
		cmdViews:   make(map[string]ViewFunc),
		cmdTimeout: cmdTimeout,
	}
}

// Метод для регистрации View для команды
func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	b.cmdViews[cmd] = view
}

// Commands returns registered command names.
func (b *Bot) Commands() []string {
	cmds := make([]string, 0, len(b.cmdViews))
	for cmd := range b.cmdViews {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Run reads updates until ctx is done. Every update is handled in its own
// goroutine so a long command does not block other chats. Run waits for the
// running handlers before returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer b.handlers.Wait()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()

				updateCtx, updateCancel := context.WithTimeout(ctx, b.cmdTimeout)
				defer updateCancel()

				b.HandleUpdate(updateCtx, update)
			}()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleUpdate routes a command to its view.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	// В каких то view может произойти паника, поэтому ее нужно перехватить
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Msg("panic recovered")
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	// Сообщение может содержать не только команду, достаем ее
	cmd := update.Message.Command()

	view, ok := b.cmdViews[cmd]
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID
	logger := log.With().Str("cmd", cmd).Int64("chat_id", chatID).Logger()
	logger.Info().Msg("command received")

	if err := view(ctx, b.api, update); err != nil {
		logger.Error().Err(err).Msg("failed to handle update")

		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, "internal error")); err != nil {
			logger.Error().Err(err).Msg("failed to send message")
		}
	}
}
