package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/rs/zerolog/log"
)

const EpravdaURL = "https://www.epravda.com.ua/"

// Економічна правда: лента финансов с датами и колонки без дат
type Epravda struct {
	client *HTTPClient
	base   *url.URL
	loc    *time.Location
	now    func() time.Time
}

func NewEpravda(client *HTTPClient, baseURL string, loc *time.Location) *Epravda {
	return &Epravda{
		client: client,
		base:   mustParse(baseURL),
		loc:    loc,
		now:    time.Now,
	}
}

func (s *Epravda) ID() model.SourceID { return model.SourceEpravda }
func (s *Epravda) Name() string       { return "Економічна правда" }
func (s *Epravda) Link() string       { return s.base.String() }

func (s *Epravda) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	pages := []struct {
		path    string
		collect func(doc *goquery.Document) []model.NewsItem
	}{
		{"finances/", s.collectFinances},
		{"columns/", s.collectColumns},
	}

	var (
		items []model.NewsItem
		errs  []error
	)

	for _, page := range pages {
		pageURL := s.base.JoinPath(page.path).String()

		doc, err := s.client.Document(ctx, pageURL)
		if err != nil {
			log.Warn().Err(err).Str("source", string(s.ID())).Str("page", pageURL).Msg("page skipped")
			errs = append(errs, err)
			continue
		}

		items = append(items, page.collect(doc)...)
	}

	if len(errs) == len(pages) {
		return nil, fmt.Errorf("epravda: %w", errors.Join(errs...))
	}

	return items, nil
}

func (s *Epravda) collectFinances(doc *goquery.Document) []model.NewsItem {
	now := s.now().In(s.loc)

	var items []model.NewsItem
	doc.Find(".article_news").Each(func(_ int, news *goquery.Selection) {
		a := news.Find(".article_title a").First()
		link := resolve(s.base, a.AttrOr("href", ""))
		if link == "" {
			return
		}

		// Дата вида "27 жовтня, 12:30", без нее новость остается недатированной
		published, _ := extract.ParseUkrainianDate(news.Find(".article_date").First().Text(), now)

		items = append(items, model.NewsItem{
			Title:     strings.TrimSpace(a.Text()),
			URL:       link,
			Published: published,
			Source:    s.ID(),
			Section:   "finances",
		})
	})

	return items
}

func (s *Epravda) collectColumns(doc *goquery.Document) []model.NewsItem {
	links := doc.Find(".article.article_view_sm .article_title a")
	if links.Length() == 0 {
		links = doc.Find(".article_title a")
	}

	var items []model.NewsItem
	links.Each(func(_ int, a *goquery.Selection) {
		link := resolve(s.base, a.AttrOr("href", ""))
		if link == "" {
			return
		}

		items = append(items, model.NewsItem{
			Title:   strings.TrimSpace(a.Text()),
			URL:     link,
			Source:  s.ID(),
			Section: "columns",
		})
	})

	return items
}
