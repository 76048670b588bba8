// Package digest turns raw source results into the text sent to a chat.
package digest

import (
	"context"
	"errors"
	"time"

	"github.com/kovalyov-valentin/news-easy-bot/internal/chunk"
	"github.com/kovalyov-valentin/news-easy-bot/internal/extract"
	"github.com/kovalyov-valentin/news-easy-bot/internal/fetcher"
	"github.com/kovalyov-valentin/news-easy-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-easy-bot/internal/model"
	"github.com/samber/lo"
)

var (
	ErrAllSourcesFailed = errors.New("all sources failed")
	ErrEmptyDigest      = errors.New("no news for the requested period")
)

// EmptyDigestError is returned when nothing is left to show. It matches
// ErrEmptyDigest and keeps the sources that failed along the way.
type EmptyDigestError struct {
	Failed []FailedSource
}

func (e *EmptyDigestError) Error() string {
	return ErrEmptyDigest.Error()
}

func (e *EmptyDigestError) Is(target error) bool {
	return target == ErrEmptyDigest
}

// Mode selects the date window of a digest.
type Mode int

const (
	// Сегодня и вчера
	ModeRecent Mode = iota
	// Только сегодня
	ModeToday
)

func (m Mode) days() int {
	if m == ModeToday {
		return 1
	}
	return 2
}

func (m Mode) String() string {
	if m == ModeToday {
		return "today"
	}
	return "recent"
}

type SourceReport struct {
	Source model.SourceID
	Name   string
	// Сколько новин пришло от источника, включая дубли
	RawTotal int
	// Сколько осталось после дедупликации и фильтра по датам
	UniqueTotal int
	Sections    []Section
}

// Shown returns the number of items left after the caps.
func (s SourceReport) Shown() int {
	return SourceGroup{Sections: s.Sections}.Count()
}

type FailedSource struct {
	Source model.SourceID
	Name   string
	Err    error
}

type Report struct {
	Mode    Mode
	Today   time.Time
	Sources []SourceReport
	Failed  []FailedSource
}

type Fetcher interface {
	Fetch(ctx context.Context) []fetcher.Result
}

type Options struct {
	Location      *time.Location
	MaxChars      int
	SectionOrder  SectionOrder
	PerSourceCap  int
	PerSectionCap int
	Undated       UndatedPolicy
}

// Service runs the whole pipeline for one command.
type Service struct {
	fetcher Fetcher
	opts    Options
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(f Fetcher, opts Options, m *metrics.Metrics) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Undated == "" {
		opts.Undated = UndatedDrop
	}

	return &Service{
		fetcher: f,
		opts:    opts,
		metrics: m,
		now:     time.Now,
	}
}

// Run builds the digest and cuts it into messages in delivery order.
func (s *Service) Run(ctx context.Context, mode Mode) ([]string, error) {
	report, err := s.Build(ctx, mode)
	if err != nil {
		return nil, err
	}

	var messages []string
	for _, block := range Format(report) {
		messages = append(messages, chunk.Split(block, s.opts.MaxChars)...)
	}

	return messages, nil
}

// Build fetches every source and assembles the report.
func (s *Service) Build(ctx context.Context, mode Mode) (Report, error) {
	start := s.now()
	results := s.fetcher.Fetch(ctx)

	report := Report{
		Mode:  mode,
		Today: extract.CalendarDate(start, s.opts.Location),
	}

	var (
		all   []model.NewsItem
		order = make([]model.SourceID, 0, len(results))
		names = make(map[model.SourceID]string, len(results))
		raw   = make(map[model.SourceID]int, len(results))
	)

	for _, res := range results {
		order = append(order, res.Source)
		names[res.Source] = res.Name

		if res.Err != nil {
			report.Failed = append(report.Failed, FailedSource{Source: res.Source, Name: res.Name, Err: res.Err})
			continue
		}

		// Источник мог не проставить себя в новостях
		items := lo.Map(res.Items, func(item model.NewsItem, _ int) model.NewsItem {
			item.Source = res.Source
			return item
		})
		items = Normalize(items)

		raw[res.Source] = len(items)
		all = append(all, items...)
	}

	if len(results) > 0 && len(report.Failed) == len(results) {
		s.metrics.RecordFailedRun(ErrAllSourcesFailed)
		return report, ErrAllSourcesFailed
	}

	unique := Dedupe(all)
	recent := FilterRecent(unique, start, s.opts.Location, mode.days(), s.opts.Undated)

	kept := make(map[model.SourceID]int, len(results))
	for _, item := range recent {
		kept[item.Source]++
	}

	groups := Group(recent, GroupOptions{
		SourceOrder:   order,
		SectionOrder:  s.opts.SectionOrder,
		PerSourceCap:  s.opts.PerSourceCap,
		PerSectionCap: s.opts.PerSectionCap,
	})

	for _, g := range groups {
		report.Sources = append(report.Sources, SourceReport{
			Source:      g.Source,
			Name:        lo.Ternary(names[g.Source] != "", names[g.Source], string(g.Source)),
			RawTotal:    raw[g.Source],
			UniqueTotal: kept[g.Source],
			Sections:    g.Sections,
		})
	}

	s.metrics.RecordRun(s.now().Sub(start), len(recent), len(all)-len(unique), len(report.Failed))

	if len(report.Sources) == 0 {
		return report, &EmptyDigestError{Failed: report.Failed}
	}

	return report, nil
}
