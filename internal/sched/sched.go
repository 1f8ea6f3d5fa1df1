// Package sched is the single-threaded cooperative scheduler every window,
// item and inventory runs on. All handlers execute inside Step (or inside a
// Submit callback drained by Run); nothing in the ui packages locks.
package sched

import (
	"context"
	"log"
	"sort"
	"sync/atomic"
	"time"
)

// Task is a scheduled callback. Timers keep their Task until cancelled.
type Task struct {
	id        uint64
	due       uint64
	period    uint64
	fn        func()
	cancelled bool
}

// Cancel stops the task before its next run. Safe to call more than once.
func (t *Task) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

func (t *Task) Cancelled() bool { return t == nil || t.cancelled }

// Scheduler runs deferred tasks on tick boundaries.
// Only Submit may be called from other goroutines.
type Scheduler struct {
	tickRateHz int
	log        *log.Logger

	tick   atomic.Uint64
	nextID uint64
	tasks  []*Task

	inbox chan func()
	stop  chan struct{}
}

func New(tickRateHz int, logger *log.Logger) *Scheduler {
	if tickRateHz <= 0 {
		tickRateHz = 20
	}
	return &Scheduler{
		tickRateHz: tickRateHz,
		log:        logger,
		inbox:      make(chan func(), 1024),
		stop:       make(chan struct{}),
	}
}

func (s *Scheduler) CurrentTick() uint64 { return s.tick.Load() }
func (s *Scheduler) TickRateHz() int     { return s.tickRateHz }

// RunTask schedules fn on the next step.
func (s *Scheduler) RunTask(fn func()) *Task { return s.RunLater(0, fn) }

// RunLater schedules fn delay ticks from now; a delay of 0 means the next step.
func (s *Scheduler) RunLater(delay int, fn func()) *Task {
	return s.schedule(delay, 0, fn)
}

// RunTimer runs fn after delay ticks and then every period ticks until cancelled.
func (s *Scheduler) RunTimer(delay, period int, fn func()) *Task {
	if period <= 0 {
		period = 1
	}
	return s.schedule(delay, uint64(period), fn)
}

func (s *Scheduler) schedule(delay int, period uint64, fn func()) *Task {
	if delay < 1 {
		delay = 1
	}
	s.nextID++
	t := &Task{
		id:     s.nextID,
		due:    s.tick.Load() + uint64(delay),
		period: period,
		fn:     fn,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Pending reports the number of live tasks.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Step advances one tick and runs every due task in (due, id) order.
// Tasks scheduled while stepping run no earlier than the next step.
func (s *Scheduler) Step() uint64 {
	now := s.tick.Add(1)

	var due, later []*Task
	for _, t := range s.tasks {
		switch {
		case t.cancelled:
		case t.due <= now:
			due = append(due, t)
		default:
			later = append(later, t)
		}
	}
	s.tasks = later
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})

	for _, t := range due {
		if t.cancelled {
			continue
		}
		s.runSafe(t)
		if t.period > 0 && !t.cancelled {
			t.due = now + t.period
			s.tasks = append(s.tasks, t)
		}
	}
	return now
}

func (s *Scheduler) runSafe(t *Task) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Printf("task %d panicked: %v", t.id, r)
		}
	}()
	t.fn()
}

// Submit hands fn to the loop goroutine. It blocks when the inbox is full.
func (s *Scheduler) Submit(fn func()) { s.inbox <- fn }

// Run drives the scheduler until ctx is done or Stop is called. Submitted
// callbacks run as soon as they arrive; tasks run on the tick.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.tickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case fn := <-s.inbox:
			fn()
		case <-ticker.C:
			s.Step()
		}
	}
}

func (s *Scheduler) Stop() { close(s.stop) }
