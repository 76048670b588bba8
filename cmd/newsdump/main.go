// Command newsdump builds a digest without Telegram and prints the messages
// the bot would send.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/kovalyov-valentin/news-easy-bot/internal/digest"
	"github.com/kovalyov-valentin/news-easy-bot/internal/fetcher"
	"github.com/kovalyov-valentin/news-easy-bot/internal/logger"
	"github.com/kovalyov-valentin/news-easy-bot/internal/source"
	"github.com/rs/zerolog/log"

	_ "time/tzdata"
)

type options struct {
	Today         bool          `long:"today" description:"Only today's news"`
	MaxChars      int           `long:"max-chars" default:"3800" description:"Maximum characters per message"`
	Feeds         string        `long:"feeds" default:"./feeds.yaml" description:"YAML file with extra RSS feeds"`
	Timezone      string        `long:"timezone" default:"Europe/Kyiv" description:"Timezone that defines today and yesterday"`
	SourceTimeout time.Duration `long:"source-timeout" default:"25s" description:"Time limit for one source"`
	MaxArticles   int           `long:"max-articles" default:"40" description:"Article pages fetched per source"`
	Undated       string        `long:"undated" default:"drop" choice:"drop" choice:"keep" description:"What to do with items without a date"`
	Sections      string        `long:"sections" default:"alphabetical" choice:"alphabetical" choice:"by-count" description:"Section order inside a source"`
	LogLevel      string        `long:"log-level" env:"NEB_LOG_LEVEL" default:"warn" description:"Log level"`
}

func main() {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logger.Init(opts.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Error().Err(err).Msg("newsdump failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	feeds, err := source.LoadFeeds(opts.Feeds)
	if err != nil {
		return err
	}

	sources := source.Defaults(source.Options{
		HTTPTimeout:     20 * time.Second,
		Location:        loc,
		MaxArticles:     opts.MaxArticles,
		ArticleParallel: 6,
		Feeds:           feeds,
	})

	mode := digest.ModeRecent
	if opts.Today {
		mode = digest.ModeToday
	}

	service := digest.NewService(
		fetcher.NewFetcher(sources, opts.SourceTimeout, log.Logger),
		digest.Options{
			Location:     loc,
			MaxChars:     opts.MaxChars,
			SectionOrder: digest.SectionOrder(opts.Sections),
			Undated:      digest.UndatedPolicy(opts.Undated),
		},
		nil,
	)

	return dump(ctx, service, mode, out)
}

type digester interface {
	Run(ctx context.Context, mode digest.Mode) ([]string, error)
}

func dump(ctx context.Context, d digester, mode digest.Mode, out io.Writer) error {
	chunks, err := d.Run(ctx, mode)
	if errors.Is(err, digest.ErrEmptyDigest) {
		text := "⚠️ Порожній результат."
		var empty *digest.EmptyDigestError
		if errors.As(err, &empty) && len(empty.Failed) > 0 {
			text += "\n\n" + digest.FormatFailed(empty.Failed)
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}
	if err != nil {
		return err
	}

	for i, text := range chunks {
		if i > 0 {
			if _, err := fmt.Fprintln(out, "\n────────"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out, text); err != nil {
			return err
		}
	}

	return nil
}
