package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 24

// Progress prints a single-line progress bar for an export run.
type Progress struct {
	start     time.Time
	out       io.Writer
	label     string
	total     int
	completed int
	failed    int
	mu        sync.Mutex
	enabled   bool
}

// NewProgress creates a tracker for total tasks writing to stderr.
func NewProgress(label string, total int, enabled bool) *Progress {
	return &Progress{
		start:   time.Now(),
		out:     os.Stderr,
		label:   label,
		total:   total,
		enabled: enabled,
	}
}

// Update records progress and redraws the bar.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed, p.total, p.failed = completed, total, failed
	if p.enabled {
		fmt.Fprint(p.out, "\r"+p.lineLocked())
	}
}

// Callback returns a ProgressFunc suitable for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc { return p.Update }

// Done terminates the progress line.
func (p *Progress) Done() {
	if p.enabled {
		fmt.Fprintln(p.out)
	}
}

// Summary describes the finished run.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Exported %d/%d %s (%d failed) in %s",
		p.completed-p.failed, p.total, p.label, p.failed, time.Since(p.start).Round(time.Millisecond))
}

func (p *Progress) lineLocked() string {
	filled := 0
	if p.total > 0 {
		filled = p.completed * barWidth / p.total
	}
	line := fmt.Sprintf("[%s%s] %d/%d %s",
		strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), p.completed, p.total, p.label)
	if p.failed > 0 {
		line += fmt.Sprintf(" (%d failed)", p.failed)
	}
	return line
}
