package source

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var yearInPath = regexp.MustCompile(`^\d{4}$`)

// Загрузка страниц статей для источников, у которых в листинге нет дат
type articleLoader struct {
	client   *HTTPClient
	chain    *extract.Chain
	parallel int
}

// load fetches every link with bounded parallelism and extracts title and
// date. Pages that fail to load are skipped. Order of links is preserved.
func (l articleLoader) load(ctx context.Context, source model.SourceID, links []string) ([]model.NewsItem, error) {
	found := make([]*model.NewsItem, len(links))

	g := new(errgroup.Group)
	g.SetLimit(max(l.parallel, 1))

	for i, link := range links {
		g.Go(func() error {
			item, ok := l.loadOne(ctx, source, link)
			if ok {
				found[i] = &item
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]model.NewsItem, 0, len(found))
	for _, item := range found {
		if item != nil {
			items = append(items, *item)
		}
	}

	return items, nil
}

func (l articleLoader) loadOne(ctx context.Context, source model.SourceID, link string) (model.NewsItem, bool) {
	if ctx.Err() != nil {
		return model.NewsItem{}, false
	}

	body, err := l.client.Get(ctx, link)
	if err != nil {
		log.Debug().Err(err).Str("source", string(source)).Str("url", link).Msg("article skipped")
		return model.NewsItem{}, false
	}
	defer body.Close()

	res, err := l.chain.ExtractReader(body, link)
	if err != nil {
		log.Debug().Err(err).Str("source", string(source)).Str("url", link).Msg("article skipped")
		return model.NewsItem{}, false
	}

	return model.NewsItem{
		Title:     res.Title,
		URL:       link,
		Published: res.Date,
		Source:    source,
		Section:   sectionFromPath(link),
	}, true
}

// Раздел берем из первого сегмента пути, годы в счет не идут
func sectionFromPath(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return model.DefaultSection
	}

	first, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if first == "" || yearInPath.MatchString(first) {
		return model.DefaultSection
	}

	return first
}

// linkCollector gathers unique absolute links up to a limit.
type linkCollector struct {
	limit int
	seen  map[string]struct{}
	links []string
}

func newLinkCollector(limit int) *linkCollector {
	return &linkCollector{limit: limit, seen: make(map[string]struct{})}
}

// add returns false once the limit is reached.
func (c *linkCollector) add(link string) bool {
	if c.full() {
		return false
	}
	if _, ok := c.seen[link]; ok {
		return true
	}

	c.seen[link] = struct{}{}
	c.links = append(c.links, link)

	return !c.full()
}

func (c *linkCollector) full() bool {
	return c.limit > 0 && len(c.links) >= c.limit
}
