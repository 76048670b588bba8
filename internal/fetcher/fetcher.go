package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Интерфейс источника
type Source interface {
	ID() model.SourceID
	Name() string
	// Забирает новости с сайта. Ошибка значит, что источник целиком не отдал ничего
	Fetch(ctx context.Context) ([]model.NewsItem, error)
}

// Результат опроса одного источника
type Result struct {
	Source  model.SourceID
	Name    string
	Items   []model.NewsItem
	Err     error
	Elapsed time.Duration
}

// Структура сборщика
type Fetcher struct {
	sources []Source
	// Таймаут на каждый источник отдельно
	sourceTimeout time.Duration
	log           zerolog.Logger
}

func NewFetcher(sources []Source, sourceTimeout time.Duration, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		sources:       sources,
		sourceTimeout: sourceTimeout,
		log:           log.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch polls every source in parallel. Results come back in registration
// order; a failed or timed out source has Err set and no items.
func (f *Fetcher) Fetch(ctx context.Context) []Result {
	results := make([]Result, len(f.sources))

	// Каждая горутина пишет только в свою ячейку results, общего состояния нет
	var wg sync.WaitGroup

	for i, src := range f.sources {
		wg.Add(1)

		go func(i int, source Source) {
			defer wg.Done()

			results[i] = f.fetchOne(ctx, source)
		}(i, src)
	}

	wg.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, source Source) (res Result) {
	res = Result{Source: source.ID(), Name: source.Name()}

	ctx, cancel := context.WithTimeout(ctx, f.sourceTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)

		// Паника в парсере одного сайта не должна ронять остальные
		if p := recover(); p != nil {
			res.Items = nil
			res.Err = fmt.Errorf("panic: %v", p)
		}

		if res.Err != nil {
			f.log.Error().
				Err(res.Err).
				Str("source", string(res.Source)).
				Dur("elapsed", res.Elapsed).
				Msg("fetching items from source")
			return
		}

		f.log.Debug().
			Str("source", string(res.Source)).
			Int("items", len(res.Items)).
			Dur("elapsed", res.Elapsed).
			Msg("source fetched")
	}()

	items, err := source.Fetch(ctx)
	if err == nil && ctx.Err() != nil {
		// Источник проигнорировал контекст и вернулся после дедлайна
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timeout after %s: %w", f.sourceTimeout, err)
		}
		res.Err = err
		return res
	}

	res.Items = items
	return res
}

// Sources describes the registered sources in display order.
func (f *Fetcher) Sources() []model.SourceInfo {
	return lo.Map(f.sources, func(s Source, _ int) model.SourceInfo {
		info := model.SourceInfo{ID: s.ID(), Name: s.Name()}
		if l, ok := s.(interface{ Link() string }); ok {
			info.URL = l.Link()
		}
		return info
	})
}
