package reports

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/utils"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	if v == "" {
		return true
	}
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func ReportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":        name,
		"ms":            d.Milliseconds(),
		"correlationId": cid,
		"extra":         extra,
	}).Warn("slow report")
}

// ReportCache memoizes calculator output keyed by canonical fingerprints.
// Entries expire passively by TTL; write-side workflows invalidate families
// synchronously. Concurrent callers of the same not-yet-cached fingerprint
// share one underlying computation (single-flight).
type ReportCache struct {
	store Store
	group singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

func NewReportCache(store Store) *ReportCache {
	return &ReportCache{
		store:       store,
		generations: map[string]uint64{},
	}
}

var (
	defaultCache     *ReportCache
	defaultCacheOnce sync.Once
)

// DefaultCache is the process-wide cache used by the HTTP boundary. Backed by
// Redis when connected; the store degrades to pass-through otherwise.
func DefaultCache() *ReportCache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewReportCache(NewRedisStore())
	})
	return defaultCache
}

func (c *ReportCache) generation(family string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[family]
}

func (c *ReportCache) bumpGeneration(family string) {
	c.mu.Lock()
	c.generations[family]++
	c.mu.Unlock()
}

// Invalidate removes every cached entry of the given families (or a single
// fingerprint, recognizable by its '|' separator) immediately. Write paths
// call this before reporting success, so the next read reflects the write.
func (c *ReportCache) Invalidate(tags ...string) error {
	var firstErr error
	for _, tag := range tags {
		family := familyOf(tag)

		// Retire the family's flight keys: computations already in flight
		// must not store their results, and callers arriving from here on
		// must not join them.
		c.bumpGeneration(family)

		if strings.ContainsRune(tag, '|') {
			if err := c.store.Remove(tag); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}

		keys, err := c.store.Members(family)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := c.store.Remove(keys...); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := c.store.RemoveFamily(family); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetOrCompute returns the cached value for fingerprint if present and not
// expired; otherwise it runs compute exactly once per fingerprint even under
// concurrent requests, stores the result with the given TTL and returns it.
// A failed compute is propagated to every waiter and never stored, so a
// subsequent call retries.
func GetOrCompute[T any](ctx context.Context, c *ReportCache, fingerprint string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || !reportCacheEnabled() {
		return compute(ctx)
	}

	var cached T
	if found, err := c.store.Get(fingerprint, &cached); err == nil && found {
		return cached, nil
	}

	family := familyOf(fingerprint)
	gen := c.generation(family)

	// The family generation is part of the flight key, so a caller arriving
	// after an invalidation starts a fresh flight instead of joining one
	// computed from pre-write data.
	flightKey := fingerprint + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		// A previous flight may have filled the store while we queued.
		var fresh T
		if found, err := c.store.Get(fingerprint, &fresh); err == nil && found {
			return fresh, nil
		}

		// Best-effort cross-replica guard: avoid two instances running the
		// same cold report. Correctness does not depend on the lock.
		if locker := config.GetRedisLock(); locker != nil {
			if lock, lockErr := locker.Obtain(ctx, "reportlock:"+fingerprint, 30*time.Second, nil); lockErr == nil {
				defer func() {
					if releaseErr := lock.Release(context.Background()); releaseErr != nil {
						config.LogError(config.GetLogger(), "reports", "GetOrCompute", "release lock "+fingerprint, nil, releaseErr)
					}
				}()
			}
		}

		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		// Skip the store when the family was invalidated mid-compute: the
		// result may predate a committed write.
		if c.generation(family) == gen {
			if setErr := c.store.Set(fingerprint, result, ttl); setErr == nil {
				_ = c.store.Register(family, fingerprint)
			}
		}
		return result, nil
	})
	if err != nil {
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("report cache: unexpected value type for %s", fingerprint)
	}
	return result, nil
}
