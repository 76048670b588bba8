package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"github.com/tomakado/containers/set"
)

const (
	CoinDeskURL     = "https://www.coindesk.com/"
	CoinDeskFeedURL = "https://www.coindesk.com/arc/outboundfeeds/rss/"
)

var (
	coindeskSection = regexp.MustCompile(`/(markets|policy|tech|business|focus|news)/`)
	datedPath       = regexp.MustCompile(`/20\d{2}/\d{2}/\d{2}/`)
	coindeskSuffix  = regexp.MustCompile(`\s*\|\s*CoinDesk\s*$`)
)

type CoinDeskConfig struct {
	BaseURL     string
	FeedURL     string
	MaxArticles int
	Parallel    int
}

// CoinDesk: в листинге только ссылки, дату и заголовок берем со страницы статьи.
// Если листинг не отдался, читаем RSS
type CoinDesk struct {
	base     *url.URL
	feedURL  string
	listURL  string
	isHost   func(host string) bool
	limit    int
	client   *HTTPClient
	articles articleLoader
	loc      *time.Location
}

func NewCoinDesk(client *HTTPClient, cfg CoinDeskConfig, loc *time.Location) *CoinDesk {
	if cfg.BaseURL == "" {
		cfg.BaseURL = CoinDeskURL
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = CoinDeskFeedURL
	}

	base := mustParse(cfg.BaseURL)
	hosts := set.New(base.Host, "www.coindesk.com", "coindesk.com")

	return &CoinDesk{
		base:    base,
		feedURL: cfg.FeedURL,
		listURL: base.JoinPath("latest-crypto-news").String(),
		isHost:  func(host string) bool { return hosts.Contains(host) },
		limit:   cfg.MaxArticles,
		client:  client,
		articles: articleLoader{
			client:   client,
			chain:    extract.Default(loc, coindeskSuffix),
			parallel: cfg.Parallel,
		},
		loc: loc,
	}
}

func (s *CoinDesk) ID() model.SourceID { return model.SourceCoinDesk }
func (s *CoinDesk) Name() string       { return "CoinDesk" }
func (s *CoinDesk) Link() string       { return s.listURL }

func (s *CoinDesk) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	links, err := s.collectLinks(ctx)
	if err != nil || len(links) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Warn().Err(err).Str("source", string(s.ID())).Msg("listing unavailable, falling back to rss")
		return s.fetchFeed(ctx)
	}

	return s.articles.load(ctx, s.ID(), links)
}

func (s *CoinDesk) collectLinks(ctx context.Context) ([]string, error) {
	doc, err := s.client.Document(ctx, s.listURL)
	if err != nil {
		return nil, err
	}

	links := newLinkCollector(s.limit)
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link := resolve(s.base, a.AttrOr("href", ""))
		if link == "" || !s.probableArticle(link) {
			return true
		}
		return links.add(link)
	})

	return links.links, nil
}

func (s *CoinDesk) probableArticle(link string) bool {
	u, err := url.Parse(link)
	if err != nil || !s.isHost(u.Host) {
		return false
	}

	p := u.Path
	if coindeskSection.MatchString(p) && datedPath.MatchString(p) {
		return true
	}

	// Часть материалов без даты в URL
	return strings.Count(p, "/") >= 3 && !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, "/latest-crypto-news")
}

func (s *CoinDesk) fetchFeed(ctx context.Context) ([]model.NewsItem, error) {
	body, err := s.client.Get(ctx, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("coindesk rss: %w", err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("coindesk rss: %w", err)
	}

	items := make([]model.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Link) == "" {
			continue
		}

		item := model.NewsItem{
			Title:   it.Title,
			URL:     strings.TrimSpace(it.Link),
			Source:  s.ID(),
			Section: sectionFromPath(it.Link),
		}
		switch {
		case it.PublishedParsed != nil:
			item.Published = extract.CalendarDate(*it.PublishedParsed, s.loc)
		case it.UpdatedParsed != nil:
			item.Published = extract.CalendarDate(*it.UpdatedParsed, s.loc)
		default:
			item.Published = extract.DateFromURL(item.URL, s.loc)
		}

		items = append(items, item)
	}

	return items, nil
}
