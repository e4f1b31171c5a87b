// Package log provides progress feedback for long batch stages: a live
// terminal bar when stderr is a TTY, periodic log lines otherwise.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Mode selects how progress is rendered
type Mode string

const (
	ModeAuto  Mode = "auto"  // bar on a TTY, plain log lines otherwise
	ModePlain Mode = "plain" // periodic log lines only
	ModeOff   Mode = "off"   // silent
)

// ResolveMode maps ModeAuto to ModeBar or ModePlain based on stderr
func ResolveMode(m Mode) Mode {
	if m != ModeAuto {
		return m
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return modeBar
	}
	return ModePlain
}

const modeBar Mode = "bar"

const plainLogInterval = 2 * time.Second

// Progress tracks one batch stage (files parsed, objects plotted, ...)
type Progress struct {
	mu       sync.Mutex
	name     string
	unit     string
	total    int
	current  int
	mode     Mode
	started  time.Time
	lastLine time.Time
}

// NewProgress starts tracking a stage of total items
func NewProgress(name, unit string, total int, mode Mode) *Progress {
	return &Progress{
		name:    name,
		unit:    unit,
		total:   total,
		mode:    ResolveMode(mode),
		started: time.Now(),
	}
}

// Increment advances by one item
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.render(false)
}

// Finish completes the stage and logs its duration
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == ModeOff {
		return
	}
	if p.mode == modeBar {
		p.render(true)
		fmt.Fprintln(os.Stderr)
	}
	log.Info().
		Str("stage", p.name).
		Int(p.unit, p.current).
		Dur("elapsed", time.Since(p.started).Round(time.Millisecond)).
		Msg("Stage completed")
}

func (p *Progress) render(force bool) {
	switch p.mode {
	case modeBar:
		fmt.Fprint(os.Stderr, "\r\033[K"+p.bar())
	case ModePlain:
		if force || time.Since(p.lastLine) >= plainLogInterval {
			p.lastLine = time.Now()
			log.Info().
				Str("stage", p.name).
				Int("done", p.current).
				Int("total", p.total).
				Msg("Progress")
		}
	}
}

func (p *Progress) bar() string {
	var b strings.Builder
	b.WriteString(p.name)
	if p.total > 0 {
		const width = 24
		filled := width * p.current / p.total
		if filled > width {
			filled = width
		}
		b.WriteString(" [")
		b.WriteString(strings.Repeat("█", filled))
		b.WriteString(strings.Repeat("░", width-filled))
		fmt.Fprintf(&b, "] %d/%d %s", p.current, p.total, p.unit)

		if p.current > 0 && p.current < p.total {
			rate := float64(p.current) / time.Since(p.started).Seconds()
			eta := time.Duration(float64(p.total-p.current)/rate) * time.Second
			fmt.Fprintf(&b, " ETA %s", eta.Round(time.Second))
		}
	} else {
		fmt.Fprintf(&b, " %d %s", p.current, p.unit)
	}
	return b.String()
}
