package runtime

import "sort"

// Task is one scheduled continuation.
type Task func()

// TimerEntry is one pending timer callback. Cancellation is cooperative: a
// cancelled entry stays queued as a tombstone and is skipped when drained.
type TimerEntry struct {
	ID        int
	Callback  Task
	Due       float64 // virtual milliseconds
	Delay     float64
	Seq       int
	Interval  bool
	Cancelled bool
}

// Scheduler is the single-threaded cooperative scheduler: a microtask FIFO
// for promise continuations and a macrotask queue for timers. Within one
// synchronous frame execution is strictly sequential; microtasks drain to
// completion before any timer callback runs; timers run in scheduled order
// with ties broken by insertion order.
type Scheduler struct {
	microtasks []Task
	timers     []*TimerEntry
	nextID     int
	seq        int
	now        float64 // virtual clock, advanced by timer execution

	// MaxTicks bounds RunToCompletion against runaway interval chains.
	MaxTicks int

	// OnUnhandledRejection receives the reason of a rejected promise that
	// still has no handler when the microtask queued at its rejection runs.
	OnUnhandledRejection func(reason Value)
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{MaxTicks: 1_000_000}
}

// EnqueueMicrotask schedules a promise continuation.
func (s *Scheduler) EnqueueMicrotask(t Task) {
	s.microtasks = append(s.microtasks, t)
}

// SetTimeout schedules a one-shot timer and returns its id.
func (s *Scheduler) SetTimeout(cb Task, delay float64) int {
	return s.addTimer(cb, delay, false)
}

// SetInterval schedules a repeating timer and returns its id.
func (s *Scheduler) SetInterval(cb Task, delay float64) int {
	return s.addTimer(cb, delay, true)
}

func (s *Scheduler) addTimer(cb Task, delay float64, interval bool) int {
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	s.seq++
	s.timers = append(s.timers, &TimerEntry{
		ID:       s.nextID,
		Callback: cb,
		Due:      s.now + delay,
		Delay:    delay,
		Seq:      s.seq,
		Interval: interval,
	})
	return s.nextID
}

// ClearTimer cancels a timer by id. The entry becomes a tombstone; the
// drain step skips it.
func (s *Scheduler) ClearTimer(id int) {
	for _, t := range s.timers {
		if t.ID == id {
			t.Cancelled = true
			return
		}
	}
}

// DrainMicrotasks runs queued microtasks until the queue is empty,
// including those enqueued while draining.
func (s *Scheduler) DrainMicrotasks() {
	for len(s.microtasks) > 0 {
		task := s.microtasks[0]
		s.microtasks = s.microtasks[1:]
		task()
	}
}

// nextTimer pops the next non-cancelled timer in (due, insertion) order.
func (s *Scheduler) nextTimer() *TimerEntry {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.Cancelled {
			live = append(live, t)
		}
	}
	s.timers = live
	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].Due != s.timers[j].Due {
			return s.timers[i].Due < s.timers[j].Due
		}
		return s.timers[i].Seq < s.timers[j].Seq
	})
	next := s.timers[0]
	s.timers = s.timers[1:]
	return next
}

// RunToCompletion drives the event loop after the top-level frame returns:
// microtasks drain first, then one timer tick, then microtasks again, until
// both queues are empty or MaxTicks is hit. The virtual clock jumps to each
// timer's due time; the process never blocks on wall-clock delays.
func (s *Scheduler) RunToCompletion() {
	ticks := 0
	for {
		s.DrainMicrotasks()

		timer := s.nextTimer()
		if timer == nil {
			return
		}
		ticks++
		if ticks > s.MaxTicks {
			return
		}
		if timer.Due > s.now {
			s.now = timer.Due
		}
		if timer.Interval {
			// Re-arm before running so clearInterval inside the callback
			// can cancel the next occurrence.
			s.seq++
			s.timers = append(s.timers, &TimerEntry{
				ID:       timer.ID,
				Callback: timer.Callback,
				Due:      s.now + timer.Delay,
				Delay:    timer.Delay,
				Seq:      s.seq,
				Interval: true,
			})
		}
		timer.Callback()
	}
}

// PendingWork reports whether any task or live timer remains queued.
func (s *Scheduler) PendingWork() bool {
	if len(s.microtasks) > 0 {
		return true
	}
	for _, t := range s.timers {
		if !t.Cancelled {
			return true
		}
	}
	return false
}
