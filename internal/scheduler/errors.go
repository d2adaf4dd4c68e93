// Package scheduler runs the delivery pipeline in-process on a fixed
// interval, as an alternative to an external cron trigger.
package scheduler

import "errors"

var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)
