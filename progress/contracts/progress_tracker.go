package contracts

import "time"

type IProgressTracker interface {
	Start(title string, total int)
	Step(index, total int, entity string)
	Skipped(entity string, err error)
	Finish(written int, duration time.Duration)
	GetCounts() (total int, rendered int, skipped int)
	Summary() string
	DisplaySummary()
	Clear()
}
