package usecase

import "time"

// Timer is a handle to a scheduled one-shot task
type Timer interface {
	// Stop cancels the task. It reports false if the task already fired.
	Stop() bool
}

// Scheduler runs a function once after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimeScheduler schedules tasks on the runtime timer
type TimeScheduler struct{}

// AfterFunc implements Scheduler
func (TimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
