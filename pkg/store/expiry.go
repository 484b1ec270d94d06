package store

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// SweepConfig controls the active-expiry sweep (spec §4.2's "active expiry"
// design note): a periodic, bounded-cost scan that reclaims expired keys
// nobody has touched lazily yet.
type SweepConfig struct {
	Interval      time.Duration // cadence between sweep cycles, default 100ms
	SampleSize    int           // keys examined per sub-pass, default 20
	ReSweepRatio  float64       // re-run immediately if this fraction of the sample was expired, default 0.25
	CycleBudget   time.Duration // wall-clock ceiling per sweep invocation, default 25ms
}

// DefaultSweepConfig matches the cadence described in spec §4.2.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval:     100 * time.Millisecond,
		SampleSize:   20,
		ReSweepRatio: 0.25,
		CycleBudget:  25 * time.Millisecond,
	}
}

// RunActiveExpiry starts the active-expiry sweep loop under g, returning
// once ctx is cancelled. g is typically an *errgroup.Group shared with the
// rest of the server's bounded background work, per spec §5.
func (s *Store) RunActiveExpiry(ctx context.Context, g *errgroup.Group, cfg SweepConfig) {
	if cfg.Interval <= 0 {
		cfg = DefaultSweepConfig()
	}
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.sweepCycle(cfg)
			}
		}
	})
}

// sweepCycle runs sub-passes of random sampling until the expired fraction
// drops below ReSweepRatio or the cycle budget is spent, matching Redis's
// own active-expire-cycle shape.
func (s *Store) sweepCycle(cfg SweepConfig) {
	deadline := time.Now().Add(cfg.CycleBudget)
	for {
		expiredFrac := s.sweepSample(cfg.SampleSize)
		if expiredFrac < cfg.ReSweepRatio {
			return
		}
		if time.Now().After(deadline) {
			return
		}
	}
}

// sweepSample examines up to n keys that carry an expiry, chosen at random,
// and deletes any that have expired, returning the fraction of the sample
// that was expired.
func (s *Store) sweepSample(n int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	keys := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if e.hasExpiry() {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return 0
	}
	if n > len(keys) {
		n = len(keys)
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	expired := 0
	for _, k := range keys[:n] {
		e := s.data[k]
		if e.hasExpiry() && !e.ExpireAt.After(now) {
			delete(s.data, k)
			expired++
		}
	}
	return float64(expired) / float64(n)
}
