package reports

import (
	"context"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// Aging bucket labels. An invoice lands in exactly one bucket based on
// daysOverdue with inclusive lower bounds: day 31 goes to 31-60, day 91 to 90+.
const (
	AgingBucketCurrent = "0-30"
	AgingBucket31To60  = "31-60"
	AgingBucket61To90  = "61-90"
	AgingBucket90Plus  = "90+"
)

func agingBucketFor(daysOverdue int) string {
	switch {
	case daysOverdue <= 30:
		return AgingBucketCurrent
	case daysOverdue <= 60:
		return AgingBucket31To60
	case daysOverdue <= 90:
		return AgingBucket61To90
	default:
		return AgingBucket90Plus
	}
}

// OutstandingInvoice is one unpaid or partially-paid invoice balance as
// fetched, before bucketing.
type OutstandingInvoice struct {
	InvoiceId     int
	InvoiceNumber string
	CustomerId    int
	BranchId      int
	DueDate       time.Time
	Balance       decimal.Decimal
}

type AgedInvoiceRow struct {
	InvoiceId     int               `json:"invoiceId"`
	InvoiceNumber string            `json:"invoiceNumber"`
	CustomerId    int               `json:"customerId"`
	BranchId      int               `json:"branchId"`
	DueDate       models.DateString `json:"dueDate"`
	Balance       decimal.Decimal   `json:"balance"`
	DaysOverdue   int               `json:"daysOverdue"`
	Bucket        string            `json:"bucket"`
}

type AgingBucketTotal struct {
	Bucket string          `json:"bucket"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

type ArAgingResponse struct {
	DateAsOf models.DateString  `json:"dateAsOf"`
	Total    decimal.Decimal    `json:"total"`
	Buckets  []AgingBucketTotal `json:"buckets"`
	Invoices []AgedInvoiceRow   `json:"invoices"`
}

func GetArAgingReport(ctx context.Context, referenceDate time.Time) (*ArAgingResponse, error) {
	started := time.Now()

	outstanding, err := fetchOutstandingInvoices(ctx)
	if err != nil {
		return nil, err
	}

	response := buildArAgingReport(referenceDate, outstanding)
	logSlowReport(ctx, "ar", started, map[string]any{"invoices": len(outstanding)})
	return response, nil
}

// fetchOutstandingInvoices selects invoices still carrying a balance. Draft
// and void invoices are not receivables.
func fetchOutstandingInvoices(ctx context.Context) ([]OutstandingInvoice, error) {
	db := config.GetDB()

	sql := `
    SELECT
        i.id AS invoice_id,
        i.invoice_number,
        i.customer_id,
        i.branch_id,
        i.due_date,
        i.total - i.paid_amount AS balance
    FROM
        rental_invoices i
    WHERE
        i.current_status IN ('Confirmed', 'Partial Paid')
        AND i.total - i.paid_amount > 0
    ORDER BY
        i.due_date, i.id;
`

	var outstanding []OutstandingInvoice
	if err := db.WithContext(ctx).Raw(sql).Scan(&outstanding).Error; err != nil {
		return nil, err
	}
	return outstanding, nil
}

func buildArAgingReport(referenceDate time.Time, outstanding []OutstandingInvoice) *ArAgingResponse {
	response := &ArAgingResponse{
		DateAsOf: models.NewDateString(referenceDate),
		Invoices: []AgedInvoiceRow{},
	}

	bucketTotals := map[string]*AgingBucketTotal{}
	for _, label := range []string{AgingBucketCurrent, AgingBucket31To60, AgingBucket61To90, AgingBucket90Plus} {
		bucketTotals[label] = &AgingBucketTotal{Bucket: label}
	}

	reference := day(referenceDate)
	for _, invoice := range outstanding {
		daysOverdue := DaysInclusive(invoice.DueDate, reference) - 1
		if daysOverdue < 0 {
			daysOverdue = 0
		}
		bucket := agingBucketFor(daysOverdue)
		balance := Round2(invoice.Balance)

		bucketTotals[bucket].Total = bucketTotals[bucket].Total.Add(balance)
		bucketTotals[bucket].Count++
		response.Total = response.Total.Add(balance)

		response.Invoices = append(response.Invoices, AgedInvoiceRow{
			InvoiceId:     invoice.InvoiceId,
			InvoiceNumber: invoice.InvoiceNumber,
			CustomerId:    invoice.CustomerId,
			BranchId:      invoice.BranchId,
			DueDate:       models.NewDateString(invoice.DueDate),
			Balance:       balance,
			DaysOverdue:   daysOverdue,
			Bucket:        bucket,
		})
	}

	for _, label := range []string{AgingBucketCurrent, AgingBucket31To60, AgingBucket61To90, AgingBucket90Plus} {
		bucketTotals[label].Total = Round2(bucketTotals[label].Total)
		response.Buckets = append(response.Buckets, *bucketTotals[label])
	}
	response.Total = Round2(response.Total)
	return response
}
