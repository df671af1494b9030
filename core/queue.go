package core

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// =============================================================================
// taskletQueue: FIFO of tasklets
// =============================================================================

// taskletQueue backs the ready queue and both wait queues of every channel.
// It is only touched by the tasklet holding the logical thread, so it has no lock.
type taskletQueue struct {
	items []*Tasklet
}

func newTaskletQueue() taskletQueue {
	return taskletQueue{items: make([]*Tasklet, 0, defaultQueueCap)}
}

func (q *taskletQueue) Push(t *Tasklet) {
	q.items = append(q.items, t)
}

// Pop removes the longest-waiting tasklet. It returns nil when the queue is empty.
func (q *taskletQueue) Pop() *Tasklet {
	if len(q.items) == 0 {
		return nil
	}

	t := q.items[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.items[0] = nil
	q.items = q.items[1:]
	q.maybeCompact()

	return t
}

// Peek returns the head without removing it.
func (q *taskletQueue) Peek() *Tasklet {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *taskletQueue) Len() int {
	return len(q.items)
}

func (q *taskletQueue) IsEmpty() bool {
	return len(q.items) == 0
}

// Contains is used by invariant checks in tests.
func (q *taskletQueue) Contains(t *Tasklet) bool {
	for _, item := range q.items {
		if item == t {
			return true
		}
	}
	return false
}

func (q *taskletQueue) maybeCompact() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]*Tasklet, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*Tasklet, n, newCap)
	copy(newSlice, q.items)
	q.items = newSlice
}
