package botkit

import (
	"sync"
	"time"
)

// Запущенная команда
type Inflight struct {
	Command string
	Started time.Time
}

// InflightRegistry tracks commands running per chat. An entry is inserted
// when a command starts and removed when it finishes.
type InflightRegistry struct {
	mu      sync.Mutex
	running map[int64]Inflight
}

func NewInflightRegistry() *InflightRegistry {
	return &InflightRegistry{running: make(map[int64]Inflight)}
}

// Acquire registers a command for chatID. ok is false when the chat already
// has a running command; release must be called exactly once otherwise.
func (r *InflightRegistry) Acquire(chatID int64, command string) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.running[chatID]; busy {
		return nil, false
	}

	r.running[chatID] = Inflight{Command: command, Started: time.Now()}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.running, chatID)
		})
	}, true
}

// Get returns the command running for chatID.
func (r *InflightRegistry) Get(chatID int64) (Inflight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.running[chatID]
	return in, ok
}

func (r *InflightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.running)
}
