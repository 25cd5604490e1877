// Package progress draws transient progress bars on stderr for the analysis
// phases, keeping piped stdout clean for report output.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker drives the bar for one phase. Tick may be called from parallel
// parse workers; the underlying bar serializes its own updates.
type Tracker struct {
	bar   *progressbar.ProgressBar
	out   io.Writer
	label string
}

// NewTracker creates a bar for a phase with a known file count.
func NewTracker(label string, total int) *Tracker {
	return newTracker(label, total, os.Stderr)
}

func newTracker(label string, total int, out io.Writer) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerHead:    ">",
			SaucerPadding: "-",
			BarStart:      "|",
			BarEnd:        "|",
		}),
	)
	return &Tracker{bar: bar, out: out, label: label}
}

// Tick records one completed file.
func (t *Tracker) Tick() {
	t.bar.Add(1)
}

// FinishSuccess erases the bar, leaving no trace on the terminal.
func (t *Tracker) FinishSuccess() {
	t.bar.Finish()
	t.bar.Clear()
}

// FinishError erases the bar and notes which phase failed. The caller still
// owns returning the error itself.
func (t *Tracker) FinishError(err error) {
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(t.out, "%s failed: %v\n", t.label, err)
}
