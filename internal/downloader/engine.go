package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"simple-dl/internal/pathutil"
)

// Engine runs one download at a time on a background goroutine
type Engine struct {
	cfg    Config
	client *http.Client
	log    *zap.SugaredLogger
	now    func() time.Time

	mu     sync.Mutex
	active *Transfer
}

// Option customises an Engine
type Option func(*Engine)

// WithLogger sets the logger used for transfer events
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithHTTPClient replaces the client built from Config
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

// NewEngine creates a new download engine
func NewEngine(cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg: cfg,
		// No overall timeout: a stalled body blocks until the transport gives up.
		client: &http.Client{
			Timeout:   0,
			Transport: newTransport(cfg),
		},
		log: zap.NewNop().Sugar(),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start resolves the destination and launches the transfer. It returns as
// soon as the transfer goroutine is running; every fault after that point is
// reported to sink as a failed outcome.
func (e *Engine) Start(ctx context.Context, req Request, sink ProgressFunc) (*Transfer, error) {
	if req.URL == "" {
		return nil, ErrEmptyURL
	}
	if sink == nil {
		sink = func(Progress) {}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && !e.active.State().Terminal() {
		return nil, ErrTransferActive
	}

	t := newTransfer(ctx, req)
	log := e.log.With("transfer_id", t.ID.String(), "url", req.URL)

	path, err := pathutil.Resolve(req.URL, req.SavePath, e.cfg.Dir)
	if err != nil {
		err = fmt.Errorf("resolve destination: %w", err)
	}
	t.path = path
	e.active = t

	log.Infow("transfer started", "path", path)
	go e.run(t, err, sink, log)

	return t, nil
}

// Active returns the current or most recent transfer, nil before the first Start.
func (e *Engine) Active() *Transfer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Pause pauses the active transfer, if any.
func (e *Engine) Pause() {
	if t := e.Active(); t != nil {
		t.Pause()
		e.log.Debugw("pause requested", "transfer_id", t.ID.String())
	}
}

// Resume resumes the active transfer, if any.
func (e *Engine) Resume() {
	if t := e.Active(); t != nil {
		t.Resume()
		e.log.Debugw("resume requested", "transfer_id", t.ID.String())
	}
}

// Cancel cancels the active transfer, if any.
func (e *Engine) Cancel() {
	if t := e.Active(); t != nil {
		t.Cancel()
		e.log.Debugw("cancel requested", "transfer_id", t.ID.String())
	}
}

func (e *Engine) run(t *Transfer, resolveErr error, sink ProgressFunc, log *zap.SugaredLogger) {
	outcome, err := OutcomeFailed, resolveErr
	if resolveErr == nil {
		outcome, err = e.download(t, sink, log)
	}

	switch outcome {
	case OutcomeFailed:
		log.Errorw("transfer failed", "error", err, "downloaded", t.Downloaded())
	case OutcomeCancelled:
		log.Infow("transfer cancelled", "downloaded", t.Downloaded())
	default:
		log.Infow("transfer completed", "downloaded", t.Downloaded(), "path", t.path)
	}

	t.settle(stateFor(outcome), err)
	sink(Progress{
		Outcome:    outcome,
		Downloaded: t.Downloaded(),
		Total:      t.Total(),
	})
	t.finish()
}

// download performs the request and streams the body to disk
func (e *Engine) download(t *Transfer, sink ProgressFunc, log *zap.SugaredLogger) (outcome Outcome, err error) {
	req, err := http.NewRequestWithContext(t.ctx, http.MethodGet, t.Request.URL, nil)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return e.fault(t, fmt.Errorf("get %s: %w", t.Request.URL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OutcomeFailed, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	t.total.Store(total)
	log.Debugw("response received", "status", resp.StatusCode, "content_length", total)

	if t.isCancelled() {
		return OutcomeCancelled, nil
	}

	file, err := os.OpenFile(t.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && outcome == OutcomeCompleted {
			outcome, err = OutcomeFailed, fmt.Errorf("close %s: %w", t.path, cerr)
		}
	}()

	if total == 0 {
		return e.copyBuffered(t, resp.Body, file, sink)
	}
	return e.copyChunked(t, resp.Body, file, total, sink, log)
}

// copyChunked writes the body chunk by chunk, honouring pause and cancel
// between chunks.
func (e *Engine) copyChunked(t *Transfer, body io.Reader, w io.Writer, total int64, sink ProgressFunc, log *zap.SugaredLogger) (Outcome, error) {
	var limiter *rate.Limiter
	if e.cfg.RateLimit > 0 {
		burst := int(e.cfg.RateLimit)
		if burst < e.cfg.ChunkSize {
			burst = e.cfg.ChunkSize
		}
		limiter = rate.NewLimiter(rate.Limit(e.cfg.RateLimit), burst)
	}

	buf := make([]byte, e.cfg.ChunkSize)
	speed := newSpeedSampler(e.cfg.SampleInterval, e.now)
	var downloaded int64

	for {
		n, rerr := body.Read(buf)

		if t.isCancelled() {
			return OutcomeCancelled, nil
		}
		if t.paused.Load() {
			if !e.waitWhilePaused(t, log) {
				return OutcomeCancelled, nil
			}
			speed.reset(downloaded)
		}

		if n > 0 {
			if limiter != nil {
				if err := limiter.WaitN(t.ctx, n); err != nil {
					return e.fault(t, fmt.Errorf("rate limit: %w", err))
				}
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return OutcomeFailed, fmt.Errorf("write %s: %w", t.path, err)
			}
			downloaded += int64(n)
			t.downloaded.Store(downloaded)

			sink(Progress{
				Outcome:    OutcomeProgress,
				Downloaded: downloaded,
				Total:      total,
				Speed:      speed.observe(downloaded),
			})
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return e.fault(t, fmt.Errorf("read body: %w", rerr))
		}
	}

	if t.isCancelled() {
		return OutcomeCancelled, nil
	}
	return OutcomeCompleted, nil
}

// copyBuffered handles bodies of unknown length: the whole body is read into
// memory, written at once and reported as a single full sample.
func (e *Engine) copyBuffered(t *Transfer, body io.Reader, w io.Writer, sink ProgressFunc) (Outcome, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return e.fault(t, fmt.Errorf("read body: %w", err))
	}
	if t.isCancelled() {
		return OutcomeCancelled, nil
	}

	if _, err := w.Write(data); err != nil {
		return OutcomeFailed, fmt.Errorf("write %s: %w", t.path, err)
	}

	n := int64(len(data))
	t.downloaded.Store(n)
	sink(Progress{Outcome: OutcomeProgress, Downloaded: n, Total: n})

	return OutcomeCompleted, nil
}

// waitWhilePaused blocks until the pause clears. It returns false if the
// transfer was cancelled meanwhile.
func (e *Engine) waitWhilePaused(t *Transfer, log *zap.SugaredLogger) bool {
	t.setState(StatePaused)
	log.Infow("transfer paused", "downloaded", t.Downloaded())

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for t.paused.Load() && !t.isCancelled() {
		select {
		case <-ticker.C:
		case <-t.ctx.Done():
		}
	}

	if t.isCancelled() {
		return false
	}

	t.setState(StateRunning)
	log.Infow("transfer resumed", "downloaded", t.Downloaded())
	return true
}

// fault maps an I/O error to cancelled when it was caused by cancellation
func (e *Engine) fault(t *Transfer, err error) (Outcome, error) {
	if t.isCancelled() {
		return OutcomeCancelled, nil
	}
	return OutcomeFailed, err
}
