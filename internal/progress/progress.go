// Package progress renders a status line while device slots are probed.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// spinnerFrames defines the animation characters for the spinner.
var spinnerFrames = []string{"|", "/", "-", "\\"}

// tickInterval is the time between redraws in TTY mode.
const tickInterval = 100 * time.Millisecond

const lineWidth = 80

// Tracker counts finished slots out of a known total. In TTY mode it
// animates a single status line with a bar; otherwise it prints one line
// per finished slot.
type Tracker struct {
	mu      sync.Mutex
	output  io.Writer
	label   string
	total   int
	done    int
	last    string
	isTTY   bool
	started time.Time

	stop    chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// NewTracker creates a tracker for total slots writing to output.
// If output is nil, os.Stderr is used.
func NewTracker(output io.Writer, label string, total int) *Tracker {
	if output == nil {
		output = os.Stderr
	}
	return &Tracker{
		output: output,
		label:  label,
		total:  total,
		isTTY:  ShouldShowProgress(),
		stop:   make(chan struct{}),
	}
}

// Start begins the animation. In non-TTY mode it only prints the label.
func (t *Tracker) Start() {
	t.mu.Lock()
	t.started = time.Now()
	t.mu.Unlock()

	if !t.isTTY {
		fmt.Fprintf(t.output, "%s (%d slots)\n", t.label, t.total)
		return
	}

	t.wg.Add(1)
	go t.animate()
}

// Done records one finished slot. status is a short description such as
// "GPU0 compatible". Safe for concurrent use.
func (t *Tracker) Done(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done < t.total {
		t.done++
	}
	t.last = status
	if !t.isTTY {
		fmt.Fprintf(t.output, "  [%d/%d] %s\n", t.done, t.total, status)
	}
}

// Finish stops the animation and clears the status line.
func (t *Tracker) Finish() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	close(t.stop)
	t.wg.Wait()

	if t.isTTY {
		fmt.Fprintf(t.output, "\r%s\r", strings.Repeat(" ", lineWidth))
	}
}

func (t *Tracker) animate() {
	defer t.wg.Done()

	frame := 0
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			line := t.render(spinnerFrames[frame%len(spinnerFrames)], time.Since(t.started))
			t.mu.Unlock()
			fmt.Fprint(t.output, line)
			frame++
		}
	}
}

// render builds the TTY status line. Caller holds t.mu.
func (t *Tracker) render(frame string, elapsed time.Duration) string {
	line := fmt.Sprintf("\r%s %s %s %d/%d %s", frame, t.label, bar(t.done, t.total, 20),
		t.done, t.total, formatDuration(elapsed.Seconds()))
	if t.last != "" {
		line += " " + t.last
	}
	if len(line) > lineWidth {
		line = line[:lineWidth]
	}
	if len(line) < lineWidth {
		line += strings.Repeat(" ", lineWidth-len(line))
	}
	return line
}

// bar draws done/total as a fixed-width bar.
func bar(done, total, width int) string {
	filled := width
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	b := strings.Repeat("=", filled)
	if filled < width {
		b += ">" + strings.Repeat(" ", width-filled-1)
	}
	return "[" + b + "]"
}

// formatDuration formats seconds into MM:SS or HH:MM:SS format
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShowProgress returns true if progress should be animated.
// Progress goes to stderr, so stderr must be a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stderr.Fd()))
}
