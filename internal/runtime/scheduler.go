package runtime

import (
	"container/heap"
	"sync"
	"time"

	"github.com/aretw0/chatsim/pkg/ports"
)

// Scheduler is the timeline of one session.
// Tasks run one at a time in (due time, issue order); a task never runs
// inside another task, and nothing runs after Close.
type Scheduler struct {
	clock ports.Clock

	mu       sync.Mutex
	queue    taskQueue
	seq      uint64
	timer    ports.Timer
	timerDue time.Time
	timerGen uint64
	closed   bool

	exec sync.Mutex // serializes task execution across timer goroutines
}

type task struct {
	due time.Time
	seq uint64
	fn  func()
}

// NewScheduler creates a scheduler driven by clock.
func NewScheduler(clock ports.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// After queues fn to run once d has elapsed.
// It reports false if the scheduler is closed.
func (s *Scheduler) After(d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.seq++
	heap.Push(&s.queue, &task{due: s.clock.Now().Add(d), seq: s.seq, fn: fn})
	s.armLocked()
	return true
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close drops every queued task and stops the timer.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.queue = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// armLocked makes sure a timer is set for the earliest queued task.
func (s *Scheduler) armLocked() {
	if len(s.queue) == 0 {
		return
	}
	next := s.queue[0].due
	if s.timer != nil && !s.timerDue.After(next) {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	delay := next.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	s.timerGen++
	gen := s.timerGen
	s.timerDue = next
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.exec.Lock()
	defer s.exec.Unlock()

	s.mu.Lock()
	// A stopped timer may still fire; it must not forget the armed one.
	if gen == s.timerGen {
		s.timer = nil
	}
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 || s.queue[0].due.After(s.clock.Now()) {
			s.armLocked()
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.queue).(*task)
		s.mu.Unlock()

		t.fn()
	}
}

// taskQueue implements heap.Interface ordered by due time, then issue order.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*task)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
