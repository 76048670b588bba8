package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-easy-bot/internal/bot"
	"github.com/kovalyov-valentin/news-easy-bot/internal/bot/middleware"
	"github.com/kovalyov-valentin/news-easy-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-easy-bot/internal/config"
	"github.com/kovalyov-valentin/news-easy-bot/internal/digest"
	"github.com/kovalyov-valentin/news-easy-bot/internal/fetcher"
	"github.com/kovalyov-valentin/news-easy-bot/internal/logger"
	"github.com/kovalyov-valentin/news-easy-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-easy-bot/internal/notifier"
	"github.com/kovalyov-valentin/news-easy-bot/internal/server"
	"github.com/kovalyov-valentin/news-easy-bot/internal/source"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var commands = []tgbotapi.BotCommand{
	{Command: "news_easy", Description: "Новини за сьогодні та вчора"},
	{Command: "news_today", Description: "Новини тільки за сьогодні"},
	{Command: "sources", Description: "Список джерел"},
}

func main() {
	cfg, err := config.Get()
	logger.Init(cfg.LogLevel)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	// Создаем бота, используя токен из конфига
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to create bot")
		return
	}
	log.Info().Str("username", botAPI.Self.UserName).Msg("authorized")

	if _, err := botAPI.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Warn().Err(err).Msg("failed to set bot commands")
	}

	feeds, err := source.LoadFeeds(cfg.FeedsFile)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.FeedsFile).Msg("failed to load feeds")
		return
	}

	// Инициализируем наши зависимости
	var (
		stats    = metrics.New()
		registry = botkit.NewInflightRegistry()
		fetcher  = fetcher.NewFetcher(
			source.Defaults(cfg.SourceOptions(feeds)),
			cfg.SourceTimeout,
			log.Logger,
		)
		digester = digest.NewService(fetcher, cfg.DigestOptions(), stats)
		notifier = notifier.New(botAPI, cfg.MessagePause, cfg.SendAttempts, stats)
	)

	//Graceful Shatdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Инициализируем нашего бота
	// Команды сборки новостей выполняются по одной на чат
	newsBot := botkit.New(botAPI, cfg.CommandTimeout)
	newsBot.RegisterCmdView("start", bot.ViewCmdStart())
	newsBot.RegisterCmdView("help", bot.ViewCmdStart())
	newsBot.RegisterCmdView(
		"news_easy",
		middleware.SingleFlight(registry, bot.ViewCmdNews(digester, notifier, digest.ModeRecent)),
	)
	newsBot.RegisterCmdView(
		"news_today",
		middleware.SingleFlight(registry, bot.ViewCmdNews(digester, notifier, digest.ModeToday)),
	)
	newsBot.RegisterCmdView("sources", bot.ViewCmdListSources(fetcher))
	newsBot.RegisterCmdView("stats", middleware.AdminOnly(cfg.AdminIDs, bot.ViewCmdStats(stats)))

	var (
		decoder server.UpdateDecoder
		updates tgbotapi.UpdatesChannel
	)
	if cfg.WebhookURL != "" {
		decoder = botAPI
	}

	srv := server.New(
		server.Config{Addr: cfg.ListenAddr, WebhookPath: cfg.WebhookPath},
		decoder,
		stats,
		log.With().Str("component", "server").Logger(),
	)

	if decoder != nil {
		if err := setWebhook(botAPI, cfg.WebhookURL, cfg.WebhookPath); err != nil {
			log.Error().Err(err).Msg("failed to set webhook")
			return
		}
		updates = srv.Updates()
	} else {
		// Вебхук мешает getUpdates, снимаем его
		if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Warn().Err(err).Msg("failed to delete webhook")
		}

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = botAPI.GetUpdatesChan(u)
		defer botAPI.StopReceivingUpdates()
	}

	g, gCtx := errgroup.WithContext(ctx)

	// HTTP сервер: health и вебхук
	g.Go(func() error {
		if err := srv.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info().Msg("http server stopped")
		return nil
	})

	// Запуск бота
	g.Go(func() error {
		if err := newsBot.Run(gCtx, updates); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info().Msg("bot stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("bot exited with error")
	}
}

func setWebhook(botAPI *tgbotapi.BotAPI, baseURL, path string) error {
	link, err := webhookLink(baseURL, path)
	if err != nil {
		return err
	}

	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true

	if _, err := botAPI.Request(wh); err != nil {
		return err
	}

	log.Info().Str("url", link).Msg("webhook set")
	return nil
}

// webhookLink joins the public base URL with the path the server listens on.
func webhookLink(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("webhook url must be absolute https, got %q", baseURL)
	}

	return u.JoinPath(path).String(), nil
}
