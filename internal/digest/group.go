package digest

import (
	"cmp"
	"slices"

	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/samber/lo"
)

// Порядок разделов внутри источника
type SectionOrder string

const (
	SectionsAlphabetical SectionOrder = "alphabetical"
	SectionsByCount      SectionOrder = "by-count"
)

type GroupOptions struct {
	// Порядок вывода источников. Источники, которых тут нет, идут в конце по алфавиту
	SourceOrder  []model.SourceID
	SectionOrder SectionOrder
	// Ограничения на количество новин. 0 значит без ограничения
	PerSourceCap  int
	PerSectionCap int
}

type Section struct {
	Name  string
	Items []model.NewsItem
}

type SourceGroup struct {
	Source   model.SourceID
	Sections []Section
}

// Count returns the number of items shown for the source.
func (g SourceGroup) Count() int {
	return lo.SumBy(g.Sections, func(s Section) int { return len(s.Items) })
}

// Group partitions items by source and then by section. Items beyond a cap
// are dropped silently.
func Group(items []model.NewsItem, opts GroupOptions) []SourceGroup {
	bySource := lo.GroupBy(items, func(item model.NewsItem) model.SourceID {
		return item.Source
	})

	groups := make([]SourceGroup, 0, len(bySource))
	for _, id := range sourceOrder(bySource, opts.SourceOrder) {
		sections := groupSections(bySource[id], opts)
		sections = capSource(sections, opts.PerSourceCap)
		if len(sections) == 0 {
			continue
		}

		groups = append(groups, SourceGroup{Source: id, Sections: sections})
	}

	return groups
}

func sourceOrder(bySource map[model.SourceID][]model.NewsItem, order []model.SourceID) []model.SourceID {
	ids := lo.Filter(lo.Uniq(order), func(id model.SourceID, _ int) bool {
		_, ok := bySource[id]
		return ok
	})

	rest := lo.Without(lo.Keys(bySource), ids...)
	slices.Sort(rest)

	return append(ids, rest...)
}

func groupSections(items []model.NewsItem, opts GroupOptions) []Section {
	bySection := lo.GroupBy(items, func(item model.NewsItem) string {
		return item.Section
	})

	sections := make([]Section, 0, len(bySection))
	for name, sectionItems := range bySection {
		slices.SortStableFunc(sectionItems, newestFirst)

		if opts.PerSectionCap > 0 && len(sectionItems) > opts.PerSectionCap {
			sectionItems = sectionItems[:opts.PerSectionCap]
		}

		sections = append(sections, Section{Name: name, Items: sectionItems})
	}

	slices.SortFunc(sections, func(a, b Section) int {
		if opts.SectionOrder == SectionsByCount {
			if c := cmp.Compare(len(b.Items), len(a.Items)); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Name, b.Name)
	})

	return sections
}

// Новые сверху, без даты в конце
func newestFirst(a, b model.NewsItem) int {
	switch {
	case a.Dated() && !b.Dated():
		return -1
	case !a.Dated() && b.Dated():
		return 1
	}
	return b.Published.Compare(a.Published)
}

func capSource(sections []Section, limit int) []Section {
	if limit <= 0 {
		return sections
	}

	capped := make([]Section, 0, len(sections))
	left := limit
	for _, s := range sections {
		if left == 0 {
			break
		}
		if len(s.Items) > left {
			s.Items = s.Items[:left]
		}
		left -= len(s.Items)
		capped = append(capped, s)
	}

	return capped
}
