// internal/sched/recorder.go

package sched

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ConsoleHook prints one aligned line per status event. Advance events are
// skipped for the brevity of output.
type ConsoleHook struct {
	w io.Writer
}

// NewConsoleHook creates a hook writing to w.
func NewConsoleHook(w io.Writer) *ConsoleHook {
	return &ConsoleHook{w: w}
}

// Func implements Hook.
func (h *ConsoleHook) Func(ev StatusEvent) {
	if ev.Kind == StatusAdvance {
		return
	}

	// an auxiliary function to center the event kind in the output
	center := func(str string, width int) string {
		spaces := int(float64(width-len(str)) / 2)
		return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
	}

	msg := fmt.Sprintf("%s = Now: %07d [%s] => Shred: %04d",
		ev.Time.Format("Jan 02 15:04:05.000"),
		ev.Now,
		center(ev.Kind.String(), 12),
		ev.ShredID,
	)
	if ev.Name != "" {
		msg += " (" + ev.Name + ")"
	}
	if ev.Kind == StatusRaise {
		msg += fmt.Sprintf(" woke %d", ev.Delta)
	}
	if ev.Err != nil {
		msg += ": " + ev.Err.Error()
	}
	fmt.Fprintln(h.w, msg)
}

// CSVRecorder writes every status event as a CSV row.
type CSVRecorder struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVRecorder writes the header to w and returns the recorder. If w is
// also an io.Closer, Close closes it.
func NewCSVRecorder(w io.Writer) (*CSVRecorder, error) {
	r := &CSVRecorder{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}

	// write header
	r.w.Write([]string{"timestamp", "run_id", "now", "event", "shred_id", "name", "delta", "error"})
	r.w.Flush()
	return r, r.w.Error()
}

// Func implements Hook.
func (r *CSVRecorder) Func(ev StatusEvent) {
	errText := ""
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		ev.RunID.String(),
		strconv.FormatInt(int64(ev.Now), 10),
		ev.Kind.String(),
		strconv.FormatUint(uint64(ev.ShredID), 10),
		ev.Name,
		strconv.FormatInt(int64(ev.Delta), 10),
		errText,
	}
	r.w.Write(rec)
	r.w.Flush()
}

// Close flushes pending rows and closes the underlying writer.
func (r *CSVRecorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return err
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

var (
	_ Hook = (*ConsoleHook)(nil)
	_ Hook = (*CSVRecorder)(nil)
)
