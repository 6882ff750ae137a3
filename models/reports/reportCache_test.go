package reports

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type cachedReport struct {
	Value int `json:"value"`
}

func TestGetOrCompute_SingleFlight(t *testing.T) {
	cache := NewReportCache(NewMemoryStore())
	fp := Fingerprint(FamilyRevenue, map[string]string{"dateFrom": "2024-01-01"})

	var computes int32
	release := make(chan struct{})

	const callers = 8
	results := make([]cachedReport, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			got, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
				func(context.Context) (cachedReport, error) {
					atomic.AddInt32(&computes, 1)
					<-release
					return cachedReport{Value: 42}, nil
				})
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = got
		}(i)
	}

	// Let every caller reach the flight before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&computes); n != 1 {
		t.Fatalf("compute ran %d times for one fingerprint, want 1", n)
	}
	for i, r := range results {
		if r.Value != 42 {
			t.Fatalf("caller %d got %+v", i, r)
		}
	}
}

func TestGetOrCompute_CachedUntilTTLExpires(t *testing.T) {
	current := time.Unix(1000, 0)
	store := &memoryStore{
		entries:  map[string]memoryEntry{},
		families: map[string]map[string]struct{}{},
		now:      func() time.Time { return current },
	}
	cache := NewReportCache(store)
	fp := Fingerprint(FamilyPnl, map[string]string{"dateFrom": "2024-01-01"})

	var computes int
	compute := func(context.Context) (cachedReport, error) {
		computes++
		return cachedReport{Value: computes}, nil
	}

	first, err := GetOrCompute(context.Background(), cache, fp, time.Minute, compute)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := GetOrCompute(context.Background(), cache, fp, time.Minute, compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if computes != 1 || first.Value != 1 || second.Value != 1 {
		t.Fatalf("expected cached value, got computes=%d first=%+v second=%+v", computes, first, second)
	}

	current = current.Add(2 * time.Minute)
	third, err := GetOrCompute(context.Background(), cache, fp, time.Minute, compute)
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if computes != 2 || third.Value != 2 {
		t.Fatalf("expected recompute after TTL, got computes=%d third=%+v", computes, third)
	}
}

func TestInvalidate_RemovesFamilyEntries(t *testing.T) {
	cache := NewReportCache(NewMemoryStore())
	fp := Fingerprint(FamilyReceivables, map[string]string{"dateAsOf": "2024-06-30"})

	var computes int
	compute := func(context.Context) (cachedReport, error) {
		computes++
		return cachedReport{Value: computes}, nil
	}

	if _, err := GetOrCompute(context.Background(), cache, fp, time.Minute, compute); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if err := cache.Invalidate(FamilyReceivables); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, err := GetOrCompute(context.Background(), cache, fp, time.Minute, compute)
	if err != nil {
		t.Fatalf("after invalidate: %v", err)
	}
	if computes != 2 || got.Value != 2 {
		t.Fatalf("expected recompute after invalidation, computes=%d got=%+v", computes, got)
	}
}

// A computation in flight when its family is invalidated must not leave a
// pre-invalidation value in the store.
func TestInvalidate_MidFlightComputeIsNotStored(t *testing.T) {
	cache := NewReportCache(NewMemoryStore())
	fp := Fingerprint(FamilyInvestors, map[string]string{"dateFrom": "2024-01-01"})

	started := make(chan struct{})
	release := make(chan struct{})
	var computes int32

	done := make(chan cachedReport, 1)
	go func() {
		got, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
			func(context.Context) (cachedReport, error) {
				atomic.AddInt32(&computes, 1)
				close(started)
				<-release
				return cachedReport{Value: 1}, nil
			})
		if err != nil {
			t.Errorf("in-flight call: %v", err)
		}
		done <- got
	}()

	<-started
	if err := cache.Invalidate(FamilyInvestors); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(release)
	first := <-done
	if first.Value != 1 {
		t.Fatalf("in-flight caller got %+v", first)
	}

	// The stale result must not have been stored; the next call recomputes.
	got, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
		func(context.Context) (cachedReport, error) {
			atomic.AddInt32(&computes, 1)
			return cachedReport{Value: 2}, nil
		})
	if err != nil {
		t.Fatalf("after invalidate: %v", err)
	}
	if got.Value != 2 || atomic.LoadInt32(&computes) != 2 {
		t.Fatalf("stale pre-invalidation value served: got=%+v computes=%d", got, computes)
	}
}

// A reader arriving after a write-side invalidation must never be handed the
// result of a flight that started before the invalidation, even while that
// flight is still open.
func TestInvalidate_LateReaderDoesNotJoinStaleFlight(t *testing.T) {
	cache := NewReportCache(NewMemoryStore())
	fp := Fingerprint(FamilyPnl, map[string]string{"dateFrom": "2024-01-01"})

	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan cachedReport, 1)
	go func() {
		got, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
			func(context.Context) (cachedReport, error) {
				close(started)
				<-release
				return cachedReport{Value: 1}, nil
			})
		if err != nil {
			t.Errorf("pre-write caller: %v", err)
		}
		done <- got
	}()

	<-started
	if err := cache.Invalidate(FamilyPnl); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	got, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
		func(context.Context) (cachedReport, error) { return cachedReport{Value: 2}, nil })
	if err != nil {
		t.Fatalf("post-write caller: %v", err)
	}
	if got.Value != 2 {
		t.Fatalf("post-write caller got pre-invalidation value %d, want fresh compute (2)", got.Value)
	}

	close(release)
	if first := <-done; first.Value != 1 {
		t.Fatalf("pre-write caller got %+v, want its own flight's value 1", first)
	}

	// The fresh value stays cached; the finished stale flight must not have
	// overwritten it.
	third, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
		func(context.Context) (cachedReport, error) { return cachedReport{Value: 3}, nil })
	if err != nil {
		t.Fatalf("cached read after both flights: %v", err)
	}
	if third.Value != 2 {
		t.Fatalf("cached value after both flights = %d, want 2", third.Value)
	}
}

func TestGetOrCompute_FailureIsNotCachedAndRetries(t *testing.T) {
	cache := NewReportCache(NewMemoryStore())
	fp := Fingerprint(FamilyUtilization, map[string]string{"dateFrom": "2024-01-01"})

	boom := errors.New("query failed")
	if _, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
		func(context.Context) (cachedReport, error) { return cachedReport{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}

	got, err := GetOrCompute(context.Background(), cache, fp, time.Minute,
		func(context.Context) (cachedReport, error) { return cachedReport{Value: 7}, nil })
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got.Value != 7 {
		t.Fatalf("retry got %+v", got)
	}
}
