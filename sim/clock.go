package sim

import "slices"

// Clock is a cooperative tick scheduler. Tasks run on the caller's
// goroutine while time is advanced, never concurrently with commands.
type Clock struct {
	now   int64
	seq   int
	tasks []scheduled
}

type scheduled struct {
	at  int64
	seq int
	run func()
}

// Now returns the current tick.
func (c *Clock) Now() int64 {
	return c.now
}

// ScheduleOnceAfter runs task once, ticks ticks from now. A delay below
// one tick runs on the next tick.
func (c *Clock) ScheduleOnceAfter(ticks int, task func()) {
	if ticks < 1 {
		ticks = 1
	}
	c.seq++
	c.tasks = append(c.tasks, scheduled{at: c.now + int64(ticks), seq: c.seq, run: task})
}

// Advance moves time forward n ticks and runs every task that comes due,
// in schedule order. It returns the number of tasks run.
func (c *Clock) Advance(n int) int {
	ran := 0
	for i := 0; i < n; i++ {
		c.now++
		due := c.takeDue()
		for _, t := range due {
			t.run()
			ran++
		}
	}
	return ran
}

// Pending returns the number of tasks waiting to run.
func (c *Clock) Pending() int {
	return len(c.tasks)
}

// Reset drops every waiting task and returns how many were dropped. The
// tick count keeps running.
func (c *Clock) Reset() int {
	n := len(c.tasks)
	c.tasks = nil
	return n
}

func (c *Clock) takeDue() []scheduled {
	var due, rest []scheduled
	for _, t := range c.tasks {
		if t.at <= c.now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.tasks = rest
	slices.SortFunc(due, func(a, b scheduled) int {
		if a.at != b.at {
			if a.at < b.at {
				return -1
			}
			return 1
		}
		return a.seq - b.seq
	})
	return due
}
