package downloader

import (
	"time"

	"simple-dl/internal/pathutil"
)

// Config holds the engine settings shared by every transfer it runs
type Config struct {
	// Dir receives derived filenames when a request has no SavePath.
	Dir string
	// ChunkSize bounds a single body read.
	ChunkSize int
	// SampleInterval is the minimum time between two speed recomputations.
	SampleInterval time.Duration
	// PollInterval is how often a paused transfer re-checks its flags.
	PollInterval time.Duration
	// RateLimit caps throughput in bytes per second. Zero disables it.
	RateLimit int64

	UseDoH             bool
	DoHEndpoint        string
	InsecureSkipVerify bool
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Dir:            pathutil.DefaultDir,
		ChunkSize:      8192,
		SampleInterval: 500 * time.Millisecond,
		PollInterval:   100 * time.Millisecond,
		DoHEndpoint:    cloudflareDoH,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Dir == "" {
		c.Dir = d.Dir
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.DoHEndpoint == "" {
		c.DoHEndpoint = d.DoHEndpoint
	}
	return c
}

// Request describes one download. It is not modified once started.
type Request struct {
	URL string
	// SavePath is used verbatim when set.
	SavePath string
}

// Outcome tags a progress notification.
type Outcome int

const (
	// OutcomeProgress marks an intermediate sample.
	OutcomeProgress Outcome = iota
	OutcomeCompleted
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProgress:
		return "progress"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further notification follows o.
func (o Outcome) Terminal() bool {
	return o != OutcomeProgress
}

// Progress is what the engine hands to the progress sink.
//
// Intermediate samples carry the byte counts and the current speed estimate.
// Each one follows a write, with one exception: a body of unknown length is
// reported by a single sample with Downloaded == Total == bytes written, which
// is 0 of 0 for an empty body. Either way that sample means the body is
// complete. The terminal notification carries the final counts and a zero speed.
type Progress struct {
	Outcome    Outcome
	Downloaded int64
	// Total is zero when the server did not report a length.
	Total int64
	// Speed is in bytes per second.
	Speed float64
}

// Fraction returns Downloaded/Total in [0, 1], or 0 when Total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Downloaded) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressFunc receives notifications on the transfer goroutine.
type ProgressFunc func(Progress)

// State is the lifecycle position of a transfer.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the lifecycle.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func stateFor(o Outcome) State {
	switch o {
	case OutcomeCompleted:
		return StateCompleted
	case OutcomeFailed:
		return StateFailed
	case OutcomeCancelled:
		return StateCancelled
	default:
		return StateRunning
	}
}
