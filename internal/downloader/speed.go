package downloader

import "time"

// speedSampler recomputes throughput at most once per interval and repeats
// the last value in between.
type speedSampler struct {
	interval  time.Duration
	now       func() time.Time
	lastTime  time.Time
	lastBytes int64
	speed     float64
}

func newSpeedSampler(interval time.Duration, now func() time.Time) *speedSampler {
	if now == nil {
		now = time.Now
	}
	return &speedSampler{
		interval: interval,
		now:      now,
		lastTime: now(),
	}
}

// reset moves the window start to now with bytes as the baseline.
func (s *speedSampler) reset(bytes int64) {
	s.lastTime = s.now()
	s.lastBytes = bytes
}

// observe records the running byte count and returns the current estimate.
func (s *speedSampler) observe(bytes int64) float64 {
	now := s.now()
	elapsed := now.Sub(s.lastTime)
	if elapsed >= s.interval && elapsed > 0 {
		s.speed = float64(bytes-s.lastBytes) / elapsed.Seconds()
		s.lastBytes = bytes
		s.lastTime = now
	}
	return s.speed
}
