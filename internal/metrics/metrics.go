// Package metrics keeps in-process counters for the /health endpoint and the
// /stats command.
package metrics

import (
	"sync"
	"time"
)

// Все методы безопасны для nil, чтобы компоненты можно было собирать без метрик
type Metrics struct {
	mu sync.RWMutex

	// Счетчики
	Runs               int64
	FailedRuns         int64
	SourceErrors       int64
	ItemsCollected     int64
	DuplicatesFiltered int64
	MessagesSent       int64
	SendRetries        int64

	// Тайминги
	LastRunDuration time.Duration

	// Статус
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	StartedAt     time.Time
}

func New() *Metrics {
	return &Metrics{StartedAt: time.Now()}
}

// RecordRun stores the outcome of one pipeline run.
func (m *Metrics) RecordRun(duration time.Duration, collected, duplicates, sourceErrors int) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	m.ItemsCollected += int64(collected)
	m.DuplicatesFiltered += int64(duplicates)
	m.SourceErrors += int64(sourceErrors)
	m.LastRunDuration = duration
	m.LastRunTime = time.Now()
}

func (m *Metrics) RecordFailedRun(err error) {
	if m == nil || err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailedRuns++
	m.LastError = err.Error()
	m.LastErrorTime = time.Now()
}

func (m *Metrics) IncrementMessagesSent() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent++
}

func (m *Metrics) IncrementSendRetries() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRetries++
}

func (m *Metrics) Stats() map[string]any {
	if m == nil {
		return map[string]any{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]any{
		"runs":                 m.Runs,
		"failed_runs":          m.FailedRuns,
		"source_errors":        m.SourceErrors,
		"items_collected":      m.ItemsCollected,
		"duplicates_filtered":  m.DuplicatesFiltered,
		"messages_sent":        m.MessagesSent,
		"send_retries":         m.SendRetries,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"uptime_seconds":       int64(time.Since(m.StartedAt).Seconds()),
		"last_error":           m.LastError,
	}
	if !m.LastRunTime.IsZero() {
		stats["last_run_time"] = m.LastRunTime.Format(time.RFC3339)
	}
	if !m.LastErrorTime.IsZero() {
		stats["last_error_time"] = m.LastErrorTime.Format(time.RFC3339)
	}

	return stats
}
