package reports

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/utils"
)

type Granularity string

const (
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityQuarter, GranularityYear:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("invalid granularity %q", s)
}

// PeriodBucket is one contiguous sub-interval of a reporting range. Start and
// End are inclusive calendar dates. The label always names the canonical
// period (e.g. the month) even when the bucket is clipped to the range.
type PeriodBucket struct {
	Label string            `json:"label"`
	Start models.DateString `json:"startDate"`
	End   models.DateString `json:"endDate"`
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days in [from, to], both ends included.
func DaysInclusive(from, to time.Time) int {
	from, to = day(from), day(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

func startOfISOWeek(t time.Time) time.Time {
	t = day(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return t.AddDate(0, 0, 1-weekday)
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// BucketRange converts [from, to] plus a granularity into an ordered,
// contiguous, non-overlapping sequence of buckets that exactly covers the
// range. Pure and deterministic.
func BucketRange(from, to time.Time, g Granularity) ([]PeriodBucket, error) {
	from, to = day(from), day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: dateTo %s is before dateFrom %s",
			utils.ErrInvalidDateRange, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	clip := func(label string, start, end time.Time) PeriodBucket {
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		return PeriodBucket{
			Label: label,
			Start: models.NewDateString(start),
			End:   models.NewDateString(end),
		}
	}

	var buckets []PeriodBucket
	switch g {
	case GranularityDay:
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			buckets = append(buckets, clip(d.Format("2006-01-02"), d, d))
		}
	case GranularityWeek:
		for cur := startOfISOWeek(from); !cur.After(to); cur = cur.AddDate(0, 0, 7) {
			year, week := cur.ISOWeek()
			label := fmt.Sprintf("%d-W%02d", year, week)
			buckets = append(buckets, clip(label, cur, cur.AddDate(0, 0, 6)))
		}
	case GranularityMonth:
		cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(to) {
			buckets = append(buckets, clip(cur.Format("2006-Jan"), cur, cur.AddDate(0, 1, -1)))
			cur = cur.AddDate(0, 1, 0)
		}
	case GranularityQuarter:
		startMonth := time.Month(((int(from.Month())-1)/3)*3 + 1)
		cur := time.Date(from.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(to) {
			label := fmt.Sprintf("%d-Q%d", cur.Year(), quarterOf(cur.Month()))
			buckets = append(buckets, clip(label, cur, cur.AddDate(0, 3, -1)))
			cur = cur.AddDate(0, 3, 0)
		}
	case GranularityYear:
		cur := time.Date(from.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(to) {
			buckets = append(buckets, clip(strconv.Itoa(cur.Year()), cur, cur.AddDate(1, 0, -1)))
			cur = cur.AddDate(1, 0, 0)
		}
	default:
		return nil, fmt.Errorf("invalid granularity %q", g)
	}

	return buckets, nil
}

// bucketIndexFor locates the bucket a date belongs to. Buckets are
// chronological, so a linear scan with an early exit is enough for report-size
// ranges. Returns -1 for a date outside the range.
func bucketIndexFor(buckets []PeriodBucket, d time.Time) int {
	d = day(d)
	for i, b := range buckets {
		if d.Before(b.Start.Time()) {
			return -1
		}
		if !d.After(b.End.Time()) {
			return i
		}
	}
	return -1
}
