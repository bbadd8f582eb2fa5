package progress

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
	"github.com/meysamhadeli/buroca/progress/contracts"
	"github.com/pterm/pterm"
)

// progressTracker follows a batch render on a pterm progress bar and
// summarizes it in a box afterwards.
type progressTracker struct {
	mutex    sync.Mutex
	quiet    bool
	bar      *pterm.ProgressbarPrinter
	title    string
	total    int
	rendered int
	skipped  map[string]error
	duration time.Duration
}

// NewProgressTracker creates a tracker. A quiet tracker only counts.
func NewProgressTracker(quiet bool) contracts.IProgressTracker {
	return &progressTracker{quiet: quiet, skipped: make(map[string]error)}
}

func (pt *progressTracker) Start(title string, total int) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	pt.title = title
	pt.total = total
	if pt.quiet || total == 0 {
		return
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err == nil {
		pt.bar = bar
	}
}

// Step advances the bar before entity is rendered.
func (pt *progressTracker) Step(index, total int, entity string) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	if total != pt.total {
		pt.total = total
	}
	if index > 1 {
		pt.rendered++
	}
	if pt.bar != nil {
		pt.bar.UpdateTitle(fmt.Sprintf("%s [%d/%d] %s", pt.title, index, total, entity))
		if index > 1 {
			pt.bar.Increment()
		}
	}
}

func (pt *progressTracker) Skipped(entity string, err error) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.skipped[entity] = err
}

// Finish records the final count of written documents and stops the bar.
func (pt *progressTracker) Finish(written int, duration time.Duration) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	pt.rendered = written
	pt.duration = duration
	if pt.bar != nil {
		pt.bar.Add(pt.total - pt.bar.Current)
		_, _ = pt.bar.Stop()
		pt.bar = nil
	}
}

func (pt *progressTracker) GetCounts() (total int, rendered int, skipped int) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	return pt.total, pt.rendered, len(pt.skipped)
}

func (pt *progressTracker) Summary() string {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Rendered: %d/%d - Skipped: %d - Time: %s", pt.rendered, pt.total, len(pt.skipped), pt.duration.Round(time.Millisecond))

	entities := make([]string, 0, len(pt.skipped))
	for entity := range pt.skipped {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	for _, entity := range entities {
		fmt.Fprintf(&b, "\n  %s: %v", entity, pt.skipped[entity])
	}
	return b.String()
}

func (pt *progressTracker) DisplaySummary() {
	fmt.Println(lipgloss.BoxStyle.Render(pt.Summary()))
}

func (pt *progressTracker) Clear() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	if pt.bar != nil {
		_, _ = pt.bar.Stop()
		pt.bar = nil
	}
	pt.title = ""
	pt.total = 0
	pt.rendered = 0
	pt.duration = 0
	pt.skipped = make(map[string]error)
}
