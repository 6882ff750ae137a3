package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func outstanding(id int, due time.Time, balance string) OutstandingInvoice {
	return OutstandingInvoice{InvoiceId: id, DueDate: due, Balance: dec(balance)}
}

func TestBuildArAgingReport_SixtyDaysOverdue(t *testing.T) {
	report := buildArAgingReport(date(2024, 6, 30), []OutstandingInvoice{
		outstanding(1, date(2024, 5, 1), "500"),
	})

	if len(report.Invoices) != 1 {
		t.Fatalf("invoice rows = %d, want 1", len(report.Invoices))
	}
	row := report.Invoices[0]
	if row.DaysOverdue != 60 {
		t.Fatalf("daysOverdue = %d, want 60", row.DaysOverdue)
	}
	if row.Bucket != AgingBucket31To60 {
		t.Fatalf("bucket = %s, want %s", row.Bucket, AgingBucket31To60)
	}
	if !report.Total.Equal(dec("500")) {
		t.Fatalf("total = %s, want 500", report.Total)
	}
	for _, b := range report.Buckets {
		if b.Bucket == AgingBucket31To60 && !b.Total.Equal(dec("500")) {
			t.Fatalf("bucket 31-60 total = %s, want 500", b.Total)
		}
	}
}

func TestBuildArAgingReport_BucketBoundaries(t *testing.T) {
	reference := date(2024, 12, 31)
	cases := []struct {
		daysOverdue int
		want        string
	}{
		{0, AgingBucketCurrent},
		{30, AgingBucketCurrent},
		{31, AgingBucket31To60},
		{60, AgingBucket31To60},
		{61, AgingBucket61To90},
		{90, AgingBucket61To90},
		{91, AgingBucket90Plus},
	}
	for _, tc := range cases {
		due := reference.AddDate(0, 0, -tc.daysOverdue)
		report := buildArAgingReport(reference, []OutstandingInvoice{outstanding(1, due, "100")})
		if report.Invoices[0].DaysOverdue != tc.daysOverdue {
			t.Fatalf("due %s: daysOverdue = %d, want %d", due.Format("2006-01-02"), report.Invoices[0].DaysOverdue, tc.daysOverdue)
		}
		if report.Invoices[0].Bucket != tc.want {
			t.Fatalf("daysOverdue %d: bucket = %s, want %s", tc.daysOverdue, report.Invoices[0].Bucket, tc.want)
		}
	}
}

func TestBuildArAgingReport_NotYetDueIsCurrent(t *testing.T) {
	report := buildArAgingReport(date(2024, 6, 1), []OutstandingInvoice{
		outstanding(1, date(2024, 6, 15), "250"),
	})
	if report.Invoices[0].DaysOverdue != 0 {
		t.Fatalf("future due date daysOverdue = %d, want 0", report.Invoices[0].DaysOverdue)
	}
	if report.Invoices[0].Bucket != AgingBucketCurrent {
		t.Fatalf("future due date bucket = %s, want %s", report.Invoices[0].Bucket, AgingBucketCurrent)
	}
}

func TestBuildArAgingReport_BucketTotalsSumToGrandTotal(t *testing.T) {
	reference := date(2024, 6, 30)
	invoices := []OutstandingInvoice{
		outstanding(1, date(2024, 6, 20), "100.10"),
		outstanding(2, date(2024, 5, 15), "200.20"),
		outstanding(3, date(2024, 4, 10), "300.30"),
		outstanding(4, date(2024, 1, 1), "400.40"),
	}

	report := buildArAgingReport(reference, invoices)

	var bucketSum decimal.Decimal
	count := 0
	for _, b := range report.Buckets {
		bucketSum = bucketSum.Add(b.Total)
		count += b.Count
	}
	if !bucketSum.Equal(report.Total) {
		t.Fatalf("sum(bucket totals) %s != total %s", bucketSum, report.Total)
	}
	if count != len(invoices) {
		t.Fatalf("bucket counts sum to %d, want %d", count, len(invoices))
	}
	if len(report.Buckets) != 4 {
		t.Fatalf("expected all 4 buckets present, got %d", len(report.Buckets))
	}
}
