package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/tomakado/containers/set"
)

// Типы schema.org, которые считаем статьями
var articleTypes = set.New(
	"newsarticle",
	"article",
	"reportagenewsarticle",
	"liveblogposting",
	"blogposting",
)

// JSONLD reads <script type="application/ld+json"> blocks, including @graph
// containers, and takes the first article-like object that has a title or a
// date.
func JSONLD(doc *goquery.Document, _ string, loc *time.Location) Result {
	var res Result

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}

		for _, obj := range ldObjects(data) {
			if !isArticle(obj) {
				continue
			}

			title := strings.TrimSpace(firstString(obj, "headline", "name"))
			var date time.Time
			if published := firstString(obj, "datePublished", "dateCreated", "dateModified"); published != "" {
				date, _ = ParseTimestamp(published, loc)
			}

			if title != "" || !date.IsZero() {
				res = Result{Title: title, Date: date}
				return false
			}
		}

		return true
	})

	return res
}

func ldObjects(data any) []map[string]any {
	var list []any

	switch v := data.(type) {
	case []any:
		list = v
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			list = graph
		} else {
			list = []any{v}
		}
	}

	objects := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}

	return objects
}

func isArticle(obj map[string]any) bool {
	raw, ok := obj["@type"]
	if !ok {
		raw = obj["type"]
	}

	switch t := raw.(type) {
	case string:
		return articleTypes.Contains(strings.ToLower(t))
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && articleTypes.Contains(strings.ToLower(s)) {
				return true
			}
		}
	}

	return false
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

var metaDateSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[name="article:published_time"]`,
	`meta[property="og:article:published_time"]`,
	`meta[name="pubdate"]`,
	`meta[itemprop="datePublished"]`,
	`time[datetime]`,
}

// MetaTags reads the publication date from meta tags or a <time datetime>.
func MetaTags(doc *goquery.Document, _ string, loc *time.Location) Result {
	for _, selector := range metaDateSelectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}

		value, ok := el.Attr("content")
		if !ok {
			value, ok = el.Attr("datetime")
		}
		if !ok {
			value = el.Text()
		}

		if date, ok := ParseTimestamp(value, loc); ok {
			return Result{Date: date}
		}
	}

	return Result{}
}

var urlDate = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)

// URLPath takes the date from a /YYYY/MM/DD/ fragment of the page URL.
func URLPath(_ *goquery.Document, pageURL string, loc *time.Location) Result {
	return Result{Date: DateFromURL(pageURL, loc)}
}

// DateFromURL returns the /YYYY/MM/DD/ date found in the URL path or zero time.
func DateFromURL(pageURL string, loc *time.Location) time.Time {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		path = u.Path
	}

	m := urlDate.FindStringSubmatch(path)
	if m == nil {
		return time.Time{}
	}

	date, _ := dateFromParts(m[1], m[2], m[3], loc)
	return date
}

// TitleTags takes the title from og:title or <title>; suffix, when set, is
// removed from the result (e.g. " | CoinDesk").
func TitleTags(suffix *regexp.Regexp) Strategy {
	return func(doc *goquery.Document, _ string, _ *time.Location) Result {
		title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
		title = strings.TrimSpace(title)
		if title == "" {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}

		if suffix != nil {
			title = strings.TrimSpace(suffix.ReplaceAllString(title, ""))
		}

		return Result{Title: title}
	}
}

// Readability runs the readability algorithm and uses the title it detects.
func Readability(doc *goquery.Document, pageURL string, _ *time.Location) Result {
	html, err := doc.Html()
	if err != nil {
		return Result{}
	}

	u, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return Result{}
	}

	return Result{Title: strings.TrimSpace(article.Title)}
}
