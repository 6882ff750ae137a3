package reports

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

// RevenueRecord is derived from a booking at report time; it is never
// persisted. Net() clamps the discount so net revenue is never negative.
type RevenueRecord struct {
	Date            time.Time
	BranchId        int
	VehicleCategory string
	CustomerType    string
	Gross           decimal.Decimal
	Discount        decimal.Decimal
	Tax             decimal.Decimal
}

func (r RevenueRecord) Net() decimal.Decimal {
	discount := r.Discount
	if discount.GreaterThan(r.Gross) {
		discount = r.Gross
	}
	return r.Gross.Sub(discount)
}

type RevenueTotals struct {
	GrossRevenue decimal.Decimal `json:"grossRevenue"`
	Discounts    decimal.Decimal `json:"discounts"`
	Tax          decimal.Decimal `json:"tax"`
	NetRevenue   decimal.Decimal `json:"netRevenue"`
	BookingCount int             `json:"bookingCount"`
}

func (t *RevenueTotals) add(r RevenueRecord) {
	t.GrossRevenue = t.GrossRevenue.Add(r.Gross)
	t.Discounts = t.Discounts.Add(r.Discount)
	t.Tax = t.Tax.Add(r.Tax)
	t.NetRevenue = t.NetRevenue.Add(r.Net())
	t.BookingCount++
}

func (t *RevenueTotals) round() {
	t.GrossRevenue = Round2(t.GrossRevenue)
	t.Discounts = Round2(t.Discounts)
	t.Tax = Round2(t.Tax)
	t.NetRevenue = Round2(t.NetRevenue)
}

type RevenueBucket struct {
	Label     string            `json:"label"`
	StartDate models.DateString `json:"startDate"`
	EndDate   models.DateString `json:"endDate"`
	RevenueTotals
}

type RevenueGroupRow struct {
	Key          string          `json:"key"`
	Name         string          `json:"name"`
	NetRevenue   decimal.Decimal `json:"netRevenue"`
	BookingCount int             `json:"bookingCount"`
}

type RevenueReportResponse struct {
	DateFrom            models.DateString `json:"dateFrom"`
	DateTo              models.DateString `json:"dateTo"`
	Granularity         Granularity       `json:"granularity"`
	Summary             RevenueTotals     `json:"summary"`
	AverageBookingValue decimal.Decimal   `json:"averageBookingValue"`
	Buckets             []RevenueBucket   `json:"buckets"`
	ByBranch            []RevenueGroupRow `json:"byBranch"`
	ByCategory          []RevenueGroupRow `json:"byCategory"`
}

type RevenueFilter struct {
	BranchId        *int
	VehicleCategory *string
	CustomerType    *string
}

func GetRevenueReport(ctx context.Context, dateFrom, dateTo time.Time, granularity Granularity, filter RevenueFilter) (*RevenueReportResponse, error) {
	started := time.Now()

	if day(dateTo).Before(day(dateFrom)) {
		return nil, utils.ErrInvalidDateRange
	}

	records, err := fetchRevenueRecords(ctx, dateFrom, dateTo, filter)
	if err != nil {
		return nil, err
	}
	branchNames, err := models.BranchNamesById(ctx)
	if err != nil {
		return nil, err
	}

	response, err := buildRevenueReport(dateFrom, dateTo, granularity, records, branchNames)
	if err != nil {
		return nil, err
	}
	logSlowReport(ctx, "revenue", started, map[string]any{"records": len(records)})
	return response, nil
}

// fetchRevenueRecords derives one record per non-cancelled booking whose start
// date falls in range. Vehicles deleted after the period still report; their
// category resolves to "Unknown" downstream.
func fetchRevenueRecords(ctx context.Context, dateFrom, dateTo time.Time, filter RevenueFilter) ([]RevenueRecord, error) {
	db := config.GetDB()

	sqlTemplate := `
    SELECT
        b.start_date AS date,
        b.branch_id,
        COALESCE(v.category, '') AS vehicle_category,
        b.customer_type,
        b.gross_amount AS gross,
        b.discount_amount AS discount,
        b.tax_amount AS tax
    FROM
        bookings b
        LEFT JOIN vehicles v ON v.id = b.vehicle_id
    WHERE
        b.start_date >= @dateFrom
        AND b.start_date <= @dateTo
        AND b.current_status <> 'Cancelled'
        {{- if .branchId }} AND b.branch_id = @branchId {{- end}}
        {{- if .vehicleCategory }} AND v.category = @vehicleCategory {{- end}}
        {{- if .customerType }} AND b.customer_type = @customerType {{- end}}
    ORDER BY
        b.start_date, b.id;
`

	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"branchId":        utils.DereferencePtr(filter.BranchId, 0),
		"vehicleCategory": utils.DereferencePtr(filter.VehicleCategory, ""),
		"customerType":    utils.DereferencePtr(filter.CustomerType, ""),
	})
	if err != nil {
		return nil, err
	}

	var records []RevenueRecord
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"dateFrom":        models.NewDateString(dateFrom),
		"dateTo":          models.NewDateString(dateTo),
		"branchId":        filter.BranchId,
		"vehicleCategory": filter.VehicleCategory,
		"customerType":    filter.CustomerType,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func buildRevenueReport(dateFrom, dateTo time.Time, granularity Granularity, records []RevenueRecord, branchNames map[int]string) (*RevenueReportResponse, error) {
	periods, err := BucketRange(dateFrom, dateTo, granularity)
	if err != nil {
		return nil, err
	}

	buckets := make([]RevenueBucket, len(periods))
	for i, p := range periods {
		buckets[i] = RevenueBucket{Label: p.Label, StartDate: p.Start, EndDate: p.End}
	}

	var summary RevenueTotals
	byBranch := map[int]*RevenueGroupRow{}
	byCategory := map[string]*RevenueGroupRow{}

	for _, record := range records {
		idx := bucketIndexFor(periods, record.Date)
		if idx < 0 {
			continue
		}
		buckets[idx].add(record)
		summary.add(record)

		branchRow, ok := byBranch[record.BranchId]
		if !ok {
			name, known := branchNames[record.BranchId]
			if !known {
				name = "Unknown"
			}
			branchRow = &RevenueGroupRow{Key: strconv.Itoa(record.BranchId), Name: name}
			byBranch[record.BranchId] = branchRow
		}
		branchRow.NetRevenue = branchRow.NetRevenue.Add(record.Net())
		branchRow.BookingCount++

		category := record.VehicleCategory
		if category == "" {
			category = "Unknown"
		}
		categoryRow, ok := byCategory[category]
		if !ok {
			categoryRow = &RevenueGroupRow{Key: category, Name: category}
			byCategory[category] = categoryRow
		}
		categoryRow.NetRevenue = categoryRow.NetRevenue.Add(record.Net())
		categoryRow.BookingCount++
	}

	for i := range buckets {
		buckets[i].round()
	}
	summary.round()

	response := &RevenueReportResponse{
		DateFrom:            models.NewDateString(dateFrom),
		DateTo:              models.NewDateString(dateTo),
		Granularity:         granularity,
		Summary:             summary,
		AverageBookingValue: PerUnit(summary.NetRevenue, summary.BookingCount),
		Buckets:             buckets,
		ByBranch:            sortedGroupRows(byBranch),
		ByCategory:          sortedCategoryRows(byCategory),
	}
	return response, nil
}

func sortedGroupRows(rows map[int]*RevenueGroupRow) []RevenueGroupRow {
	ids := make([]int, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]RevenueGroupRow, 0, len(ids))
	for _, id := range ids {
		row := rows[id]
		row.NetRevenue = Round2(row.NetRevenue)
		out = append(out, *row)
	}
	return out
}

func sortedCategoryRows(rows map[string]*RevenueGroupRow) []RevenueGroupRow {
	keys := make([]string, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]RevenueGroupRow, 0, len(keys))
	for _, key := range keys {
		row := rows[key]
		row.NetRevenue = Round2(row.NetRevenue)
		out = append(out, *row)
	}
	return out
}
