package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/fleetfocus/rentals_backend/models/reports"
)

var allReportFamilies = []string{
	reports.FamilyRevenue,
	reports.FamilyPnl,
	reports.FamilyReceivables,
	reports.FamilyInvestors,
	reports.FamilyUtilization,
}

func withTestCache(t *testing.T) *reports.ReportCache {
	t.Helper()
	cache := reports.NewReportCache(reports.NewMemoryStore())
	orig := reportCache
	reportCache = func() *reports.ReportCache { return cache }
	t.Cleanup(func() { reportCache = orig })
	return cache
}

// seedFamilies caches one entry per report family and returns its fingerprint.
func seedFamilies(t *testing.T, cache *reports.ReportCache) map[string]string {
	t.Helper()
	fingerprints := map[string]string{}
	for _, family := range allReportFamilies {
		fp := reports.Fingerprint(family, map[string]string{"dateFrom": "2024-01-01"})
		if _, err := reports.GetOrCompute(context.Background(), cache, fp, time.Minute,
			func(context.Context) (int, error) { return 1, nil }); err != nil {
			t.Fatalf("seed %s: %v", family, err)
		}
		fingerprints[family] = fp
	}
	return fingerprints
}

// evictedFamilies reports, per family, whether the seeded entry was removed
// (the next read recomputed).
func evictedFamilies(t *testing.T, cache *reports.ReportCache, fingerprints map[string]string) map[string]bool {
	t.Helper()
	evicted := map[string]bool{}
	for family, fp := range fingerprints {
		recomputed := false
		if _, err := reports.GetOrCompute(context.Background(), cache, fp, time.Minute,
			func(context.Context) (int, error) {
				recomputed = true
				return 2, nil
			}); err != nil {
			t.Fatalf("read %s after mutation: %v", family, err)
		}
		evicted[family] = recomputed
	}
	return evicted
}

// Each write path must invalidate exactly the report families its mutation
// can affect, before the mutation returns.
func TestWriteSideInvalidationFamilies(t *testing.T) {
	cases := []struct {
		name       string
		invalidate func()
		want       map[string]bool
	}{
		{
			name:       "expense writes touch pnl only",
			invalidate: func() { invalidateExpenseReports("TestWriteSideInvalidationFamilies") },
			want: map[string]bool{
				reports.FamilyRevenue:     false,
				reports.FamilyPnl:         true,
				reports.FamilyReceivables: false,
				reports.FamilyInvestors:   false,
				reports.FamilyUtilization: false,
			},
		},
		{
			name:       "invoice and payment writes touch every revenue-derived family",
			invalidate: func() { invalidateReceivableReports("TestWriteSideInvalidationFamilies") },
			want: map[string]bool{
				reports.FamilyRevenue:     true,
				reports.FamilyPnl:         true,
				reports.FamilyReceivables: true,
				reports.FamilyInvestors:   true,
				reports.FamilyUtilization: true,
			},
		},
		{
			name:       "payout writes touch investors only",
			invalidate: func() { invalidatePayoutReports("TestWriteSideInvalidationFamilies") },
			want: map[string]bool{
				reports.FamilyRevenue:     false,
				reports.FamilyPnl:         false,
				reports.FamilyReceivables: false,
				reports.FamilyInvestors:   true,
				reports.FamilyUtilization: false,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := withTestCache(t)
			fingerprints := seedFamilies(t, cache)

			tc.invalidate()

			got := evictedFamilies(t, cache, fingerprints)
			for _, family := range allReportFamilies {
				if got[family] != tc.want[family] {
					t.Fatalf("family %s evicted=%v, want %v", family, got[family], tc.want[family])
				}
			}
		})
	}
}
