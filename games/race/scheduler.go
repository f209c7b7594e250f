package race

import "time"

// Timer is a cancellable pending callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Implementations decide which goroutine
// runs f; the engine expects it to be the goroutine that owns it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, f func()) Timer

func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) Timer {
	return fn(d, f)
}

// WallClock schedules on time.AfterFunc. Callbacks run on their own
// goroutine, so it only suits owners that serialize engine access.
var WallClock Scheduler = SchedulerFunc(func(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
})
