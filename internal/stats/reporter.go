package stats

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Reporter emits search status lines on a side channel. Lines start with
// '#' so a consuming server treats them as comments. Emission never blocks
// the search on anything but the writer itself.
type Reporter struct {
	w     io.Writer
	start time.Time

	lastExpanded  atomic.Int64
	lastGenerated atomic.Int64
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w, start: time.Now()}
}

// Report writes one status line:
// #<expanded>, <frontier>, <generated>, <time_s>, <mem_MB>, <max_mem_MB>
// The counts are cumulative; the reporter feeds the deltas to the metrics.
func (r *Reporter) Report(expanded, frontier, generated int) {
	used := Usage()
	fmt.Fprintf(r.w, "#%d, %d, %d, %.3f, %.1f, %.1f\n",
		expanded, frontier, generated,
		time.Since(r.start).Seconds(), used, MaxUsage())

	Expansions.Add(float64(int64(expanded) - r.lastExpanded.Swap(int64(expanded))))
	Generated.Add(float64(int64(generated) - r.lastGenerated.Swap(int64(generated))))
	Frontier.Set(float64(frontier))
}
