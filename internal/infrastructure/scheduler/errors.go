package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when an operation requires a running scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)
