package digest

import (
	"fmt"
	"strings"

	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// Format renders the report as text blocks in delivery order: a summary,
// one block per source and a footer with failed sources. Items are separated
// by blank lines so the chunker can cut between them.
func Format(r Report) []string {
	blocks := []string{formatSummary(r)}

	for _, src := range r.Sources {
		blocks = append(blocks, formatSource(src))
	}

	if footer := FormatFailed(r.Failed); footer != "" {
		blocks = append(blocks, footer)
	}

	return blocks
}

// FormatFailed lists sources that gave nothing; empty when none failed.
func FormatFailed(failed []FailedSource) string {
	if len(failed) == 0 {
		return ""
	}

	names := lo.Map(failed, func(f FailedSource, _ int) string {
		return "• " + f.Name
	})
	return "⚠️ Не вдалося отримати новини з:\n" + strings.Join(names, "\n")
}

func formatSummary(r Report) string {
	var period string
	switch r.Mode {
	case ModeToday:
		period = fmt.Sprintf("за сьогодні (%s)", r.Today.Format(dateLayout))
	default:
		period = fmt.Sprintf(
			"за сьогодні та вчора (%s, %s)",
			r.Today.Format(dateLayout),
			r.Today.AddDate(0, 0, -1).Format(dateLayout),
		)
	}

	total := lo.SumBy(r.Sources, func(s SourceReport) int { return s.Shown() })

	return fmt.Sprintf("🗞 Новини %s\nДжерел: %d, новин: %d", period, len(r.Sources), total)
}

func formatSource(src SourceReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✅ %s - результат:\n", src.Name)
	fmt.Fprintf(&b, "   Усього знайдено %d (з урахуванням дублів)\n", src.RawTotal)
	fmt.Fprintf(&b, "   Унікальних новин: %d", src.UniqueTotal)

	for _, section := range src.Sections {
		fmt.Fprintf(&b, "\n\nРозділ: %s — %d новин:", section.Name, len(section.Items))

		for i, item := range section.Items {
			fmt.Fprintf(&b, "\n\n%d. %s (%s)\n   %s", i+1, item.Title, formatDate(item), item.URL)
		}
	}

	return b.String()
}

func formatDate(item model.NewsItem) string {
	if !item.Dated() {
		return "—"
	}
	return item.Published.Format(dateLayout)
}
