package digest

import (
	"strings"
	"time"

	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// Что делать с новостями без даты при фильтрации по дням
type UndatedPolicy string

const (
	UndatedDrop UndatedPolicy = "drop"
	UndatedKeep UndatedPolicy = "keep"
)

// Normalize cleans up titles, URLs and sections. Items without a URL are
// dropped, empty titles get a placeholder.
func Normalize(items []model.NewsItem) []model.NewsItem {
	return lo.FilterMap(items, func(item model.NewsItem, _ int) (model.NewsItem, bool) {
		item.URL = strings.TrimSpace(item.URL)
		if item.URL == "" {
			return item, false
		}

		item.Title = cleanText(item.Title)
		if item.Title == "" {
			item.Title = model.UntitledPlaceholder
		}

		item.Section = strings.TrimSpace(item.Section)
		if item.Section == "" {
			item.Section = model.DefaultSection
		}

		return item, true
	})
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Dedupe keeps the first item for every canonical URL and preserves order.
func Dedupe(items []model.NewsItem) []model.NewsItem {
	return lo.UniqBy(items, func(item model.NewsItem) string {
		return Canonicalize(item.URL)
	})
}

// FilterRecent keeps items dated within the last days calendar days in loc,
// today included: days=2 means today and yesterday, days=1 today only.
func FilterRecent(items []model.NewsItem, now time.Time, loc *time.Location, days int, undated UndatedPolicy) []model.NewsItem {
	if days < 1 {
		days = 1
	}

	today := extract.CalendarDate(now, loc)
	earliest := today.AddDate(0, 0, -(days - 1))

	return lo.Filter(items, func(item model.NewsItem, _ int) bool {
		if !item.Dated() {
			return undated == UndatedKeep
		}

		d := extract.CalendarDate(item.Published, loc)
		return !d.Before(earliest) && !d.After(today)
	})
}
