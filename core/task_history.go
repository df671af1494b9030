package core

import (
	"reflect"
	"runtime"
	"sync"
)

const defaultTaskHistoryCapacity = 100

// executionHistory is a ring buffer of finished tasklets.
// It is written on the scheduler's logical thread and read from anywhere.
type executionHistory struct {
	mu    sync.Mutex
	items []TaskletRecord
	head  int
	count int
}

func newExecutionHistory(capacity int) *executionHistory {
	if capacity < 1 {
		capacity = defaultTaskHistoryCapacity
	}
	return &executionHistory{items: make([]TaskletRecord, capacity)}
}

func (h *executionHistory) Add(record TaskletRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 returns all of them.
func (h *executionHistory) Recent(limit int) []TaskletRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]TaskletRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *executionHistory) Last() (TaskletRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return TaskletRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

func resolveTaskletName(fn Computation, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if fn == nil {
		return "anonymous"
	}

	pc := reflect.ValueOf(fn).Pointer()
	if pc == 0 {
		return "anonymous"
	}

	f := runtime.FuncForPC(pc)
	if f == nil || f.Name() == "" {
		return "anonymous"
	}
	return f.Name()
}
