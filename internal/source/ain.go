package source

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/tomakado/containers/set"
)

const AINURL = "https://ain.ua/"

// Разделы, которые не попадают в дайджест
var ainExcludedPrefixes = []string{"/pop-science/", "/special/"}

var anyDatedPath = regexp.MustCompile(`/\d{4}/\d{2}/\d{2}/`)

type AIN struct {
	base     *url.URL
	isHost   func(host string) bool
	limit    int
	client   *HTTPClient
	articles articleLoader
}

func NewAIN(client *HTTPClient, baseURL string, maxArticles, parallel int, loc *time.Location) *AIN {
	if baseURL == "" {
		baseURL = AINURL
	}

	base := mustParse(baseURL)
	hosts := set.New(base.Host, "ain.ua", "www.ain.ua")

	return &AIN{
		base:   base,
		isHost: func(host string) bool { return hosts.Contains(host) },
		limit:  maxArticles,
		client: client,
		articles: articleLoader{
			client:   client,
			chain:    extract.Default(loc, nil),
			parallel: parallel,
		},
	}
}

func (s *AIN) ID() model.SourceID { return model.SourceAIN }
func (s *AIN) Name() string       { return "AIN.UA" }
func (s *AIN) Link() string       { return s.base.String() }

func (s *AIN) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	doc, err := s.client.Document(ctx, s.base.String())
	if err != nil {
		return nil, err
	}

	return s.articles.load(ctx, s.ID(), s.collectLinks(doc))
}

func (s *AIN) collectLinks(doc *goquery.Document) []string {
	links := newLinkCollector(s.limit)

	// Сначала большие карточки
	doc.Find(".widget__content-wrapper").EachWithBreak(func(_ int, wrap *goquery.Selection) bool {
		if hasExcludedTags(wrap) {
			return true
		}

		link := resolve(s.base, wrap.Find("a.widget__content[href]").First().AttrOr("href", ""))
		if !s.accept(link) {
			return true
		}
		return links.add(link)
	})

	// Потом списки и остальные блоки
	doc.Find("a.widget__content[href], .widget a[href], h2 a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if links.full() {
			return false
		}

		link := resolve(s.base, a.AttrOr("href", ""))
		if !s.accept(link) {
			return true
		}
		if wrap := a.Closest(".widget__content-wrapper"); wrap.Length() > 0 && hasExcludedTags(wrap) {
			return true
		}
		return links.add(link)
	})

	return links.links
}

func (s *AIN) accept(link string) bool {
	if link == "" {
		return false
	}

	u, err := url.Parse(link)
	if err != nil || !s.isHost(u.Host) || excludedPath(u.Path) {
		return false
	}

	if anyDatedPath.MatchString(u.Path) {
		return true
	}
	return strings.Count(u.Path, "/") >= 3 && !strings.HasSuffix(u.Path, "/")
}

func hasExcludedTags(wrap *goquery.Selection) bool {
	excluded := false
	wrap.Find(".widget__header_tags a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if u, err := url.Parse(href); err == nil {
			href = u.Path
		}
		excluded = excludedPath(href)
		return !excluded
	})
	return excluded
}

func excludedPath(p string) bool {
	for _, prefix := range ainExcludedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
