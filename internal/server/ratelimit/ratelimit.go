// Package ratelimit throttles admin API requests per acting administrator.
//
// Requests fall into tiers: cycle-wide batch operations (POST /cycles/...),
// single-applicant writes (PUT /applicants/...), everything else, and the
// unlimited health and metrics endpoints. Each administrator has one token
// bucket per tier, so alternating between batch operations or cycles does
// not multiply the allowance.
package ratelimit

import (
	"math"
	"strings"
	"sync"
	"time"
)

// Tier groups requests that share an allowance.
type Tier string

const (
	TierBatch     Tier = "batch"
	TierApplicant Tier = "applicant"
	TierDefault   Tier = "default"
	TierUnlimited Tier = "unlimited"
)

// Rate is a sustained per-minute allowance with a burst capacity.
// A Burst of zero uses PerMinute.
type Rate struct {
	PerMinute int
	Burst     int
}

func (r Rate) capacity() float64 {
	if r.Burst > 0 {
		return float64(r.Burst)
	}
	return float64(r.PerMinute)
}

func (r Rate) perSecond() float64 {
	return float64(r.PerMinute) / 60
}

// Config holds the allowance of each limited tier.
type Config struct {
	Batch     Rate
	Applicant Rate
	Default   Rate

	// IdleTTL is how long an unused bucket is kept. Zero keeps buckets forever.
	IdleTTL time.Duration
}

// BatchConfig derives the admin API configuration from the batch allowance:
// single-applicant writes get ten times the batch rate and every other request
// 600 per minute. A non-positive perMinute disables limiting and returns nil.
func BatchConfig(perMinute, burst int) *Config {
	if perMinute <= 0 {
		return nil
	}
	return &Config{
		Batch:     Rate{PerMinute: perMinute, Burst: burst},
		Applicant: Rate{PerMinute: perMinute * 10, Burst: burst * 10},
		Default:   Rate{PerMinute: 600},
		IdleTTL:   time.Hour,
	}
}

func (c *Config) rate(t Tier) Rate {
	switch t {
	case TierBatch:
		return c.Batch
	case TierApplicant:
		return c.Applicant
	default:
		return c.Default
	}
}

// Classify returns the tier of a request.
func Classify(method, path string) Tier {
	switch {
	case method == "GET" && (path == "/health" || path == "/metrics"):
		return TierUnlimited
	case method == "POST" && strings.HasPrefix(path, "/cycles/"):
		return TierBatch
	case method == "PUT" && strings.HasPrefix(path, "/applicants/"):
		return TierApplicant
	default:
		return TierDefault
	}
}

// Decision is the outcome of one Allow call. Limit is zero when the request
// was not subject to limiting.
type Decision struct {
	Allowed    bool
	Tier       Tier
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucketKey struct {
	client string
	tier   Tier
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter holds the token buckets of every client. A Limiter built from a nil
// Config allows everything.
type Limiter struct {
	cfg     *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[bucketKey]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter. When cfg sets IdleTTL, idle buckets are swept
// in the background until Stop is called.
func NewLimiter(cfg *Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg != nil && cfg.IdleTTL > 0 {
		go l.sweepLoop(cfg.IdleTTL)
	}
	return l
}

// Allow consumes one token from the client's bucket for the request's tier.
func (l *Limiter) Allow(client, method, path string) Decision {
	tier := Classify(method, path)
	if l.cfg == nil || tier == TierUnlimited {
		return Decision{Allowed: true, Tier: tier}
	}
	rate := l.cfg.rate(tier)
	if rate.PerMinute <= 0 {
		return Decision{Allowed: true, Tier: tier}
	}

	now := l.now()
	capacity, perSecond := rate.capacity(), rate.perSecond()

	l.mu.Lock()
	defer l.mu.Unlock()

	key := bucketKey{client: client, tier: tier}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, lastSeen: now}
		l.buckets[key] = b
	}
	b.tokens = min(capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*perSecond)
	b.lastSeen = now

	d := Decision{Tier: tier, Limit: rate.PerMinute}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	} else {
		d.RetryAfter = seconds((1 - b.tokens) / perSecond)
	}
	d.Remaining = int(math.Floor(b.tokens))
	d.ResetTime = now.Add(seconds((capacity - b.tokens) / perSecond))
	return d
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// sweep drops buckets unused since before cutoff.
func (l *Limiter) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) sweepLoop(ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep(l.now().Add(-ttl))
		case <-l.stop:
			return
		}
	}
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
