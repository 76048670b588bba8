package source

import (
	"time"

	"github.com/kovalyov-valentin/news-easy-bot/internal/fetcher"
)

type Options struct {
	UserAgent   string
	HTTPTimeout time.Duration
	Location    *time.Location
	// Лимит статей, которые грузим со страниц CoinDesk и AIN
	MaxArticles int
	// Сколько статей грузим параллельно
	ArticleParallel int
	Feeds           []Feed
}

// Defaults returns all sources in display order: the scraped sites first,
// then RSS feeds.
func Defaults(opts Options) []fetcher.Source {
	client := NewHTTPClient(opts.UserAgent, opts.HTTPTimeout)

	sources := []fetcher.Source{
		NewEpravda(client, EpravdaURL, opts.Location),
		NewMinfin(client, MinfinURL, opts.Location),
		NewCoinDesk(client, CoinDeskConfig{
			MaxArticles: opts.MaxArticles,
			Parallel:    opts.ArticleParallel,
		}, opts.Location),
		NewAIN(client, AINURL, opts.MaxArticles, opts.ArticleParallel, opts.Location),
	}

	for _, f := range opts.Feeds {
		sources = append(sources, NewRSSSourceFromFeed(client, f, opts.Location))
	}

	return sources
}
