package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/rs/zerolog/log"
)

const MinfinURL = "https://minfin.com.ua/"

var minfinSections = []string{
	"ua/news/",
	"ua/news/money-management/",
	"ua/news/commerce/",
	"ua/news/improvement/",
}

var minfinDateLayouts = []string{"2006-01-02", "02.01.2006"}

type Minfin struct {
	client *HTTPClient
	base   *url.URL
	loc    *time.Location
}

func NewMinfin(client *HTTPClient, baseURL string, loc *time.Location) *Minfin {
	return &Minfin{
		client: client,
		base:   mustParse(baseURL),
		loc:    loc,
	}
}

func (s *Minfin) ID() model.SourceID { return model.SourceMinfin }
func (s *Minfin) Name() string       { return "Мінфін" }
func (s *Minfin) Link() string       { return s.base.String() }

// Fetch reads every section page. A broken page is skipped; the source fails
// only when none of the pages could be loaded.
func (s *Minfin) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	var (
		items []model.NewsItem
		errs  []error
	)

	for _, section := range minfinSections {
		pageURL := s.base.JoinPath(section).String()

		doc, err := s.client.Document(ctx, pageURL)
		if err != nil {
			log.Warn().Err(err).Str("source", string(s.ID())).Str("page", pageURL).Msg("page skipped")
			errs = append(errs, err)
			continue
		}

		items = append(items, s.collect(doc, path.Base(strings.TrimSuffix(section, "/")))...)
	}

	if len(errs) == len(minfinSections) {
		return nil, fmt.Errorf("minfin: %w", errors.Join(errs...))
	}

	return items, nil
}

func (s *Minfin) collect(doc *goquery.Document, section string) []model.NewsItem {
	var items []model.NewsItem

	doc.Find("li.item").Each(func(_ int, li *goquery.Selection) {
		dateTag := li.Find("span.data").First()
		a := li.Find("a").First()
		if dateTag.Length() == 0 || a.Length() == 0 {
			return
		}

		link := resolve(s.base, a.AttrOr("href", ""))
		if link == "" {
			return
		}

		raw, ok := dateTag.Attr("content")
		if !ok || strings.TrimSpace(raw) == "" {
			raw = strings.ReplaceAll(dateTag.Text(), "\u00a0", " ")
		}

		published, ok := s.parseDate(raw)
		if !ok {
			return
		}

		items = append(items, model.NewsItem{
			Title:     strings.TrimSpace(a.Text()),
			URL:       link,
			Published: published,
			Source:    s.ID(),
			Section:   section,
		})
	})

	return items
}

func (s *Minfin) parseDate(raw string) (time.Time, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return time.Time{}, false
	}

	candidates := []string{fields[0]}
	// content бывает полным ISO таймстемпом
	if len(fields[0]) > 10 {
		candidates = append(candidates, fields[0][:10])
	}

	for _, value := range candidates {
		for _, layout := range minfinDateLayouts {
			if t, err := time.ParseInLocation(layout, value, s.loc); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}
