package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = c.now
	t.Cleanup(l.Stop)
	return l, c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		method, path string
		want         Tier
	}{
		{"GET", "/health", TierUnlimited},
		{"GET", "/metrics", TierUnlimited},
		{"POST", "/health", TierDefault},
		{"POST", "/cycles/fall-2026/written/assign", TierBatch},
		{"POST", "/cycles/spring-2027/categorize", TierBatch},
		{"GET", "/cycles/fall-2026/export", TierDefault},
		{"PUT", "/applicants/app-1/decision", TierApplicant},
		{"GET", "/applicants/app-1/written/submission", TierDefault},
		{"PUT", "/written-grades/g-1/score", TierDefault},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.method, tt.path))
		})
	}
}

func TestBatchConfig(t *testing.T) {
	assert.Nil(t, BatchConfig(0, 5))
	assert.Nil(t, BatchConfig(-1, 5))

	cfg := BatchConfig(30, 5)
	require.NotNil(t, cfg)
	assert.Equal(t, Rate{PerMinute: 30, Burst: 5}, cfg.Batch)
	assert.Equal(t, Rate{PerMinute: 300, Burst: 50}, cfg.Applicant)
	assert.Equal(t, 600, cfg.Default.PerMinute)
}

func TestAllow_BurstThenDeny(t *testing.T) {
	l, _ := newTestLimiter(t, BatchConfig(60, 2))

	for i := 0; i < 2; i++ {
		d := l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/categorize")
		require.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, TierBatch, d.Tier)
		assert.Equal(t, 60, d.Limit)
		assert.Equal(t, 1-i, d.Remaining)
	}

	d := l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/categorize")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestAllow_Refills(t *testing.T) {
	l, c := newTestLimiter(t, BatchConfig(60, 1))

	require.True(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/fill").Allowed)
	require.False(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/fill").Allowed)

	c.advance(500 * time.Millisecond)
	d := l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/fill")
	assert.False(t, d.Allowed)
	assert.Equal(t, 500*time.Millisecond, d.RetryAfter)

	c.advance(500 * time.Millisecond)
	assert.True(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/fill").Allowed)

	// Refill never exceeds the burst
	c.advance(time.Hour)
	assert.True(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/fill").Allowed)
	assert.False(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/fill").Allowed)
}

func TestAllow_BatchTierSharedAcrossOperations(t *testing.T) {
	l, _ := newTestLimiter(t, BatchConfig(60, 2))

	require.True(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/written/assign").Allowed)
	require.True(t, l.Allow("actor:admin-1", "POST", "/cycles/spring-2027/scores/recalculate").Allowed)
	assert.False(t, l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/interview/fill").Allowed)

	// Other tiers and other administrators keep their own buckets
	assert.True(t, l.Allow("actor:admin-1", "PUT", "/applicants/app-1/decision").Allowed)
	assert.True(t, l.Allow("actor:admin-1", "GET", "/cycles/fall-2026/workload").Allowed)
	assert.True(t, l.Allow("actor:admin-2", "POST", "/cycles/fall-2026/written/assign").Allowed)
}

func TestAllow_Unlimited(t *testing.T) {
	l, _ := newTestLimiter(t, BatchConfig(1, 1))
	for i := 0; i < 100; i++ {
		d := l.Allow("ip:10.0.0.1", "GET", "/health")
		require.True(t, d.Allowed)
		assert.Zero(t, d.Limit)
	}
	assert.Empty(t, l.buckets)
}

func TestAllow_DisabledWithoutConfig(t *testing.T) {
	l, _ := newTestLimiter(t, nil)
	for i := 0; i < 100; i++ {
		d := l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/categorize")
		require.True(t, d.Allowed)
		assert.Zero(t, d.Limit)
	}
}

func TestSweep_DropsIdleBuckets(t *testing.T) {
	l, c := newTestLimiter(t, &Config{Batch: Rate{PerMinute: 60, Burst: 1}, Default: Rate{PerMinute: 600}})

	l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/categorize")
	c.advance(2 * time.Hour)
	l.Allow("actor:admin-2", "POST", "/cycles/fall-2026/categorize")

	assert.Equal(t, 1, l.sweep(c.now().Add(-time.Hour)))
	require.Len(t, l.buckets, 1)
	_, ok := l.buckets[bucketKey{client: "actor:admin-2", tier: TierBatch}]
	assert.True(t, ok)
}

func TestAllow_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, BatchConfig(60, 50))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("actor:admin-1", "POST", "/cycles/fall-2026/categorize").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestStop_Idempotent(t *testing.T) {
	l := NewLimiter(BatchConfig(30, 5))
	l.Stop()
	l.Stop()
}
