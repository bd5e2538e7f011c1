package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"simple-dl/internal/downloader"
)

// Plain prints line-oriented progress for non-interactive use.
type Plain struct {
	out      io.Writer
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewPlain returns a printer that writes at most one progress line per interval.
func NewPlain(out io.Writer, interval time.Duration) *Plain {
	return &Plain{out: out, interval: interval, now: time.Now}
}

// Sink is a downloader.ProgressFunc.
func (p *Plain) Sink(pr downloader.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pr.Outcome.Terminal() {
		fmt.Fprintf(p.out, "%s: %s\n", pr.Outcome, humanize.Bytes(uint64(pr.Downloaded)))
		return
	}

	now := p.now()
	if !p.last.IsZero() && now.Sub(p.last) < p.interval && pr.Downloaded != pr.Total {
		return
	}
	p.last = now

	if pr.Total > 0 {
		fmt.Fprintf(p.out, "%5.1f%% %s / %s %s/s\n",
			pr.Fraction()*100,
			humanize.Bytes(uint64(pr.Downloaded)),
			humanize.Bytes(uint64(pr.Total)),
			humanize.Bytes(uint64(pr.Speed)))
		return
	}
	fmt.Fprintf(p.out, "%s %s/s\n", humanize.Bytes(uint64(pr.Downloaded)), humanize.Bytes(uint64(pr.Speed)))
}
