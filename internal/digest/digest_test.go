package digest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/kovalyov-valentin/news-easy-bot/internal/fetcher"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/rs/zerolog"
)

func kyiv(t *testing.T) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.epravda.com.ua/finances/", "https://www.epravda.com.ua/finances"},
		{"HTTPS://WWW.Epravda.com.ua/finances?utm_source=tg#top", "https://www.epravda.com.ua/finances"},
		{"http://minfin.com.ua:80/ua/news/", "https://minfin.com.ua/ua/news"},
		{"http://ain.ua/2024/05/01/x", "https://ain.ua/2024/05/01/x"},
		{"http://ain.ua:443/2024/05/01/x", "https://ain.ua/2024/05/01/x"},
		{"http://example.com:8080/a", "https://example.com:8080/a"},
		{"https://minfin.com.ua:443/ua/news", "https://minfin.com.ua/ua/news"},
		{"https://example.com:8443/a/", "https://example.com:8443/a"},
		{"coindesk.com/markets/2024/05/01/x/", "https://coindesk.com/markets/2024/05/01/x"},
		{"//ain.ua/2024/05/01/x", "https://ain.ua/2024/05/01/x"},
		{"https://ain.ua/", "https://ain.ua"},
		{"  /relative/path  ", "/relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	urls := []string{
		"https://www.epravda.com.ua/finances/",
		"HTTP://Example.COM:80//a//b//?x=1",
		"https://[::1]:443/path/",
		"http://[2001:db8::1]:8080/x",
		"http://example.com:443/a",
		"example.com",
		"mailto:someone@example.com",
		"https://example.com/a%20b/",
		"not a url at all",
		"https://",
	}

	for _, u := range urls {
		once := Canonicalize(u)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q -> %q", u, once, twice)
		}
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	items := []model.NewsItem{
		{Title: "first", URL: "https://minfin.com.ua/ua/news/1"},
		{Title: "second", URL: "https://minfin.com.ua/ua/news/1/"},
		{Title: "third", URL: "https://minfin.com.ua/ua/news/2?utm=tg"},
	}

	got := Dedupe(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Title != "first" || got[1].Title != "third" {
		t.Errorf("unexpected items %+v", got)
	}
	// URL для вывода не трогаем
	if got[1].URL != "https://minfin.com.ua/ua/news/2?utm=tg" {
		t.Errorf("url was rewritten: %q", got[1].URL)
	}
}

func TestDedupeFoldsHTTPIntoHTTPS(t *testing.T) {
	items := []model.NewsItem{
		{Title: "https", URL: "https://www.coindesk.com/markets/2024/05/01/btc/"},
		{Title: "http", URL: "http://www.coindesk.com/markets/2024/05/01/btc"},
	}

	got := Dedupe(items)
	if len(got) != 1 || got[0].Title != "https" {
		t.Errorf("unexpected items %+v", got)
	}
}

func TestDedupeIsIdempotent(t *testing.T) {
	items := []model.NewsItem{
		{Title: "a", URL: "https://a.com/x"},
		{Title: "b", URL: "https://A.com/x/"},
		{Title: "c", URL: "https://a.com/y"},
		{Title: "d", URL: "https://a.com/y#comments"},
		{Title: "e", URL: "https://b.com/"},
	}

	once := Dedupe(items)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestNormalize(t *testing.T) {
	items := []model.NewsItem{
		// "й" в разложенной форме
		{Title: "  Новий\n\tкурс   валют Й  ", URL: " https://minfin.com.ua/1 ", Section: ""},
		{Title: "", URL: "https://minfin.com.ua/2", Section: "commerce"},
		{Title: "no url", URL: "   "},
	}

	got := Normalize(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Title != "Новий курс валют Й" {
		t.Errorf("unexpected title %q", got[0].Title)
	}
	if got[0].URL != "https://minfin.com.ua/1" || got[0].Section != model.DefaultSection {
		t.Errorf("unexpected item %+v", got[0])
	}
	if got[1].Title != model.UntitledPlaceholder || got[1].Section != "commerce" {
		t.Errorf("unexpected item %+v", got[1])
	}
}

func TestFilterRecent(t *testing.T) {
	loc := kyiv(t)
	now := time.Date(2024, time.May, 3, 0, 30, 0, 0, loc)
	day := func(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, loc) }

	items := []model.NewsItem{
		{Title: "today", Published: day(3)},
		{Title: "yesterday", Published: day(2)},
		{Title: "two days ago", Published: day(1)},
		{Title: "tomorrow", Published: day(4)},
		{Title: "undated"},
	}

	titles := func(items []model.NewsItem) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Title
		}
		return out
	}

	got := titles(FilterRecent(items, now, loc, 2, UndatedDrop))
	if !reflect.DeepEqual(got, []string{"today", "yesterday"}) {
		t.Errorf("recent/drop: %v", got)
	}

	got = titles(FilterRecent(items, now, loc, 2, UndatedKeep))
	if !reflect.DeepEqual(got, []string{"today", "yesterday", "undated"}) {
		t.Errorf("recent/keep: %v", got)
	}

	got = titles(FilterRecent(items, now, loc, 1, UndatedDrop))
	if !reflect.DeepEqual(got, []string{"today"}) {
		t.Errorf("today: %v", got)
	}
}

func TestGroup(t *testing.T) {
	loc := kyiv(t)
	day := func(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, loc) }

	items := []model.NewsItem{
		{Title: "m1", Source: model.SourceMinfin, Section: "news", Published: day(1)},
		{Title: "e1", Source: model.SourceEpravda, Section: "finances", Published: day(1)},
		{Title: "e2", Source: model.SourceEpravda, Section: "columns"},
		{Title: "e3", Source: model.SourceEpravda, Section: "finances", Published: day(2)},
		{Title: "e4", Source: model.SourceEpravda, Section: "finances", Published: day(2)},
		{Title: "x1", Source: "zeta", Section: "news"},
	}

	groups := Group(items, GroupOptions{
		SourceOrder:  []model.SourceID{model.SourceEpravda, model.SourceMinfin},
		SectionOrder: SectionsAlphabetical,
	})

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Source != model.SourceEpravda || groups[1].Source != model.SourceMinfin || groups[2].Source != "zeta" {
		t.Errorf("unexpected source order: %v %v %v", groups[0].Source, groups[1].Source, groups[2].Source)
	}

	ep := groups[0]
	if ep.Sections[0].Name != "columns" || ep.Sections[1].Name != "finances" {
		t.Errorf("unexpected section order: %+v", ep.Sections)
	}

	fin := ep.Sections[1].Items
	if fin[0].Title != "e3" || fin[1].Title != "e4" || fin[2].Title != "e1" {
		t.Errorf("items are not newest first (stable): %v %v %v", fin[0].Title, fin[1].Title, fin[2].Title)
	}

	byCount := Group(items, GroupOptions{
		SourceOrder:   []model.SourceID{model.SourceEpravda},
		SectionOrder:  SectionsByCount,
		PerSectionCap: 2,
		PerSourceCap:  3,
	})

	ep = byCount[0]
	if ep.Sections[0].Name != "finances" || len(ep.Sections[0].Items) != 2 {
		t.Errorf("unexpected first section: %+v", ep.Sections[0])
	}
	if ep.Count() != 3 {
		t.Errorf("expected per-source cap of 3, got %d", ep.Count())
	}
}

func TestGroupUndatedLast(t *testing.T) {
	loc := kyiv(t)
	items := []model.NewsItem{
		{Title: "undated", Source: model.SourceAIN, Section: "news"},
		{Title: "dated", Source: model.SourceAIN, Section: "news", Published: time.Date(2024, time.May, 1, 0, 0, 0, 0, loc)},
	}

	got := Group(items, GroupOptions{})[0].Sections[0].Items
	if got[0].Title != "dated" || got[1].Title != "undated" {
		t.Errorf("undated item is not last: %v", got)
	}
}

func TestFormat(t *testing.T) {
	loc := kyiv(t)
	report := Report{
		Mode:  ModeRecent,
		Today: time.Date(2024, time.May, 2, 0, 0, 0, 0, loc),
		Sources: []SourceReport{{
			Source:      model.SourceEpravda,
			Name:        "Економічна правда",
			RawTotal:    3,
			UniqueTotal: 2,
			Sections: []Section{{
				Name: "finances",
				Items: []model.NewsItem{
					{Title: "Курс гривні", URL: "https://epravda.com.ua/1", Published: time.Date(2024, time.May, 2, 0, 0, 0, 0, loc)},
					{Title: "Колонка", URL: "https://epravda.com.ua/2"},
				},
			}},
		}},
		Failed: []FailedSource{{Source: model.SourceAIN, Name: "AIN.UA", Err: errors.New("timeout")}},
	}

	blocks := Format(report)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}

	if !strings.Contains(blocks[0], "2024-05-02, 2024-05-01") || !strings.Contains(blocks[0], "новин: 2") {
		t.Errorf("unexpected summary: %q", blocks[0])
	}

	want := "✅ Економічна правда - результат:\n" +
		"   Усього знайдено 3 (з урахуванням дублів)\n" +
		"   Унікальних новин: 2\n\n" +
		"Розділ: finances — 2 новин:\n\n" +
		"1. Курс гривні (2024-05-02)\n   https://epravda.com.ua/1\n\n" +
		"2. Колонка (—)\n   https://epravda.com.ua/2"
	if blocks[1] != want {
		t.Errorf("unexpected source block:\n%s\nwant:\n%s", blocks[1], want)
	}

	if !strings.Contains(blocks[2], "AIN.UA") {
		t.Errorf("failed source is not listed: %q", blocks[2])
	}
}

type stubSource struct {
	id    model.SourceID
	items []model.NewsItem
	err   error
	hang  bool
}

func (s stubSource) ID() model.SourceID { return s.id }
func (s stubSource) Name() string       { return string(s.id) }

func (s stubSource) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	if s.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.items, s.err
}

func newTestService(t *testing.T, sources ...fetcher.Source) (*Service, time.Time) {
	t.Helper()

	loc := kyiv(t)
	now := time.Date(2024, time.May, 2, 15, 0, 0, 0, loc)

	f := fetcher.NewFetcher(sources, 50*time.Millisecond, zerolog.Nop())
	s := NewService(f, Options{Location: loc, MaxChars: 3800}, nil)
	s.now = func() time.Time { return now }

	return s, now
}

func TestServiceSurvivesTimedOutSource(t *testing.T) {
	today := time.Date(2024, time.May, 2, 0, 0, 0, 0, kyiv(t))

	var items []model.NewsItem
	for i := 0; i < 5; i++ {
		items = append(items, model.NewsItem{
			Title:     fmt.Sprintf("Новина %d", i),
			URL:       fmt.Sprintf("https://minfin.com.ua/ua/news/%d/", i),
			Published: today,
			Section:   "news",
		})
	}

	s, _ := newTestService(t,
		stubSource{id: model.SourceEpravda, hang: true},
		stubSource{id: model.SourceMinfin, items: items},
	)

	messages, err := s.Run(context.Background(), ModeRecent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := strings.Join(messages, "\n")
	for _, item := range items {
		if !strings.Contains(text, item.URL) {
			t.Errorf("missing %s in output", item.URL)
		}
	}
	if strings.Count(text, "https://minfin.com.ua/") != 5 {
		t.Errorf("expected exactly 5 items in output:\n%s", text)
	}
	if !strings.Contains(text, "Не вдалося") || !strings.Contains(text, "epravda") {
		t.Errorf("failed source is not reported:\n%s", text)
	}
}

func TestServiceAllSourcesFailed(t *testing.T) {
	s, _ := newTestService(t,
		stubSource{id: model.SourceEpravda, err: errors.New("status 500")},
		stubSource{id: model.SourceMinfin, hang: true},
	)

	if _, err := s.Run(context.Background(), ModeRecent); !errors.Is(err, ErrAllSourcesFailed) {
		t.Errorf("expected ErrAllSourcesFailed, got %v", err)
	}
}

func TestServiceEmptyDigest(t *testing.T) {
	old := time.Date(2024, time.April, 1, 0, 0, 0, 0, kyiv(t))

	s, _ := newTestService(t,
		stubSource{id: model.SourceMinfin, items: []model.NewsItem{{Title: "old", URL: "https://minfin.com.ua/old", Published: old}}},
	)

	if _, err := s.Run(context.Background(), ModeToday); !errors.Is(err, ErrEmptyDigest) {
		t.Errorf("expected ErrEmptyDigest, got %v", err)
	}
}

func TestServiceEmptyDigestKeepsFailedSources(t *testing.T) {
	old := time.Date(2024, time.April, 1, 0, 0, 0, 0, kyiv(t))

	s, _ := newTestService(t,
		stubSource{id: model.SourceEpravda, err: errors.New("403 forbidden")},
		stubSource{id: model.SourceMinfin, items: []model.NewsItem{{Title: "old", URL: "https://minfin.com.ua/old", Published: old}}},
	)

	_, err := s.Run(context.Background(), ModeRecent)
	if !errors.Is(err, ErrEmptyDigest) {
		t.Fatalf("expected ErrEmptyDigest, got %v", err)
	}

	var empty *EmptyDigestError
	if !errors.As(err, &empty) {
		t.Fatalf("expected *EmptyDigestError, got %T", err)
	}
	if got, want := FormatFailed(empty.Failed), "⚠️ Не вдалося отримати новини з:\n• epravda"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestServiceCountsAndChunks(t *testing.T) {
	today := time.Date(2024, time.May, 2, 0, 0, 0, 0, kyiv(t))

	var items []model.NewsItem
	for i := 0; i < 60; i++ {
		items = append(items, model.NewsItem{
			Title:     strings.Repeat("довгий заголовок ", 5) + fmt.Sprint(i),
			URL:       fmt.Sprintf("https://www.coindesk.com/markets/2024/05/02/story-%d", i),
			Published: today,
			Section:   "markets",
		})
	}
	// Дубль первой новости
	items = append(items, model.NewsItem{Title: "dup", URL: items[0].URL + "/?utm=x", Published: today})

	s, _ := newTestService(t, stubSource{id: model.SourceCoinDesk, items: items})
	s.opts.MaxChars = 1000

	report, err := s.Build(context.Background(), ModeToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Sources[0].RawTotal != 61 || report.Sources[0].UniqueTotal != 60 {
		t.Errorf("unexpected totals: raw=%d unique=%d", report.Sources[0].RawTotal, report.Sources[0].UniqueTotal)
	}

	messages, err := s.Run(context.Background(), ModeToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) < 2 {
		t.Fatalf("expected several messages, got %d", len(messages))
	}
	for i, m := range messages {
		if n := len([]rune(m)); n > 1000 {
			t.Errorf("message %d has %d runes", i, n)
		}
	}
}
