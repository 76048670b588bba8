package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/samber/lo"
)

// RSS клиент для лент из feeds.yaml
type RSSSource struct {
	// URL откуда мы забираем данные
	URL        string
	SourceID   model.SourceID
	SourceName string
	Section    string
	// Сколько новостей брать из ленты, 0 значит все
	Limit int

	client *HTTPClient
	loc    *time.Location
}

// Конструктор, который из описания ленты создает источник
func NewRSSSourceFromFeed(client *HTTPClient, f Feed, loc *time.Location) RSSSource {
	return RSSSource{
		URL:        f.URL,
		SourceID:   model.SourceID(f.ID),
		SourceName: f.Name,
		Section:    f.Section,
		Limit:      f.Limit,
		client:     client,
		loc:        loc,
	}
}

func (s RSSSource) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	feed, err := s.loadFeed(ctx, s.URL)
	if err != nil {
		return nil, err
	}

	feedItems := feed.Items
	if s.Limit > 0 && len(feedItems) > s.Limit {
		feedItems = feedItems[:s.Limit]
	}

	return lo.Map(feedItems, func(item *rss.Item, _ int) model.NewsItem {
		var published time.Time
		if !item.Date.IsZero() {
			published = extract.CalendarDate(item.Date, s.loc)
		}

		return model.NewsItem{
			Title:     strings.TrimSpace(item.Title),
			URL:       strings.TrimSpace(item.Link),
			Published: published,
			Source:    s.SourceID,
			Section:   s.Section,
		}
	}), nil
}

// Метод, который загружает ленту. Запрос привязан к ctx, поэтому при
// отмене соединение закрывается вместе с ним
func (s RSSSource) loadFeed(ctx context.Context, url string) (*rss.Feed, error) {
	fetch := func() (*http.Response, error) {
		return s.client.Response(ctx, url, acceptFeed)
	}

	feed, err := rss.FetchByFunc(fetch, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	return feed, nil
}

func (s RSSSource) ID() model.SourceID {
	return s.SourceID
}

func (s RSSSource) Name() string {
	return s.SourceName
}

func (s RSSSource) Link() string {
	return s.URL
}
