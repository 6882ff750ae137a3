package reports

import (
	"context"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

// VehicleRevenueRow is one vehicle's aggregated net booking revenue in a
// period, as fetched. Vehicles with zero activity never appear.
type VehicleRevenueRow struct {
	VehicleId     int
	InvestorId    int
	LicensePlate  string
	Category      string
	Revenue       decimal.Decimal
	BookingsCount int
}

type VehicleContribution struct {
	VehicleId     int             `json:"vehicleId"`
	LicensePlate  string          `json:"licensePlate"`
	Category      string          `json:"category"`
	Revenue       decimal.Decimal `json:"revenue"`
	BookingsCount int             `json:"bookingsCount"`
}

// InvestorPayoutPreview is a value object: the full payout computation with no
// identity and no side effects. The payout workflow persists these numbers
// verbatim when a payout is created.
type InvestorPayoutPreview struct {
	InvestorId        int                   `json:"investorId"`
	InvestorName      string                `json:"investorName"`
	PeriodFrom        models.DateString     `json:"periodFrom"`
	PeriodTo          models.DateString     `json:"periodTo"`
	BranchId          *int                  `json:"branchId,omitempty"`
	TotalRevenue      decimal.Decimal       `json:"totalRevenue"`
	CommissionPercent decimal.Decimal       `json:"commissionPercent"`
	CommissionAmount  decimal.Decimal       `json:"commissionAmount"`
	NetPayout         decimal.Decimal       `json:"netPayout"`
	Breakdown         []VehicleContribution `json:"breakdown"`
}

type InvestorsReportResponse struct {
	DateFrom          models.DateString       `json:"dateFrom"`
	DateTo            models.DateString       `json:"dateTo"`
	CommissionPercent decimal.Decimal         `json:"commissionPercent"`
	TotalRevenue      decimal.Decimal         `json:"totalRevenue"`
	TotalCommission   decimal.Decimal         `json:"totalCommission"`
	TotalNetPayout    decimal.Decimal         `json:"totalNetPayout"`
	Investors         []InvestorPayoutPreview `json:"investors"`
}

// GetInvestorPayoutPreview computes one investor's payout for a period.
// An investor with no vehicles or no revenue yields a valid zero-value
// preview; whether a zero payout may be created is the workflow's call.
func GetInvestorPayoutPreview(ctx context.Context, investorId int, periodFrom, periodTo time.Time, branchId *int) (*InvestorPayoutPreview, error) {
	started := time.Now()

	if day(periodTo).Before(day(periodFrom)) {
		return nil, utils.ErrInvalidDateRange
	}
	investor, err := models.GetInvestor(ctx, investorId)
	if err != nil {
		return nil, err
	}

	rows, err := fetchVehicleRevenueRows(ctx, periodFrom, periodTo, &investorId, branchId)
	if err != nil {
		return nil, err
	}

	preview := buildInvestorPayoutPreview(*investor, periodFrom, periodTo, branchId, investor.CommissionPercent, rows)
	logSlowReport(ctx, "investor_payout_preview", started, map[string]any{"investorId": investorId})
	return preview, nil
}

// GetInvestorsReport runs the payout computation for every active investor
// with a single commission percent supplied by the caller.
func GetInvestorsReport(ctx context.Context, dateFrom, dateTo time.Time, commissionPercent decimal.Decimal) (*InvestorsReportResponse, error) {
	started := time.Now()

	if day(dateTo).Before(day(dateFrom)) {
		return nil, utils.ErrInvalidDateRange
	}
	investors, err := models.ListActiveInvestors(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := fetchVehicleRevenueRows(ctx, dateFrom, dateTo, nil, nil)
	if err != nil {
		return nil, err
	}

	response := buildInvestorsReport(dateFrom, dateTo, commissionPercent, investors, rows)
	logSlowReport(ctx, "investors", started, map[string]any{"investors": len(investors)})
	return response, nil
}

// fetchVehicleRevenueRows aggregates non-cancelled booking revenue per vehicle.
// Discounts are clamped per booking so a vehicle's revenue is never negative.
func fetchVehicleRevenueRows(ctx context.Context, dateFrom, dateTo time.Time, investorId, branchId *int) ([]VehicleRevenueRow, error) {
	db := config.GetDB()

	sqlTemplate := `
    SELECT
        v.id AS vehicle_id,
        v.investor_id,
        v.license_plate,
        v.category,
        SUM(b.gross_amount - LEAST(b.discount_amount, b.gross_amount)) AS revenue,
        COUNT(b.id) AS bookings_count
    FROM
        bookings b
        INNER JOIN vehicles v ON v.id = b.vehicle_id
    WHERE
        b.start_date >= @dateFrom
        AND b.start_date <= @dateTo
        AND b.current_status <> 'Cancelled'
        AND v.investor_id > 0
        {{- if .investorId }} AND v.investor_id = @investorId {{- end}}
        {{- if .branchId }} AND v.branch_id = @branchId {{- end}}
    GROUP BY
        v.id, v.investor_id, v.license_plate, v.category
    ORDER BY
        v.id;
`

	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"investorId": utils.DereferencePtr(investorId, 0),
		"branchId":   utils.DereferencePtr(branchId, 0),
	})
	if err != nil {
		return nil, err
	}

	var rows []VehicleRevenueRow
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"dateFrom":   models.NewDateString(dateFrom),
		"dateTo":     models.NewDateString(dateTo),
		"investorId": investorId,
		"branchId":   branchId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func buildInvestorPayoutPreview(investor models.Investor, periodFrom, periodTo time.Time, branchId *int, commissionPercent decimal.Decimal, rows []VehicleRevenueRow) *InvestorPayoutPreview {
	preview := &InvestorPayoutPreview{
		InvestorId:        investor.ID,
		InvestorName:      investor.Name,
		PeriodFrom:        models.NewDateString(periodFrom),
		PeriodTo:          models.NewDateString(periodTo),
		BranchId:          branchId,
		CommissionPercent: commissionPercent,
		Breakdown:         []VehicleContribution{},
	}

	var total decimal.Decimal
	for _, row := range rows {
		if row.Revenue.IsZero() && row.BookingsCount == 0 {
			continue
		}
		total = total.Add(row.Revenue)
		preview.Breakdown = append(preview.Breakdown, VehicleContribution{
			VehicleId:     row.VehicleId,
			LicensePlate:  row.LicensePlate,
			Category:      row.Category,
			Revenue:       Round2(row.Revenue),
			BookingsCount: row.BookingsCount,
		})
	}

	preview.TotalRevenue = Round2(total)
	preview.CommissionAmount = ApplyPercent(preview.TotalRevenue, commissionPercent)
	preview.NetPayout = preview.TotalRevenue.Sub(preview.CommissionAmount)
	return preview
}

func buildInvestorsReport(dateFrom, dateTo time.Time, commissionPercent decimal.Decimal, investors []models.Investor, rows []VehicleRevenueRow) *InvestorsReportResponse {
	byInvestor := map[int][]VehicleRevenueRow{}
	for _, row := range rows {
		byInvestor[row.InvestorId] = append(byInvestor[row.InvestorId], row)
	}

	response := &InvestorsReportResponse{
		DateFrom:          models.NewDateString(dateFrom),
		DateTo:            models.NewDateString(dateTo),
		CommissionPercent: commissionPercent,
		Investors:         []InvestorPayoutPreview{},
	}
	for _, investor := range investors {
		preview := buildInvestorPayoutPreview(investor, dateFrom, dateTo, nil, commissionPercent, byInvestor[investor.ID])
		response.TotalRevenue = response.TotalRevenue.Add(preview.TotalRevenue)
		response.TotalCommission = response.TotalCommission.Add(preview.CommissionAmount)
		response.TotalNetPayout = response.TotalNetPayout.Add(preview.NetPayout)
		response.Investors = append(response.Investors, *preview)
	}
	response.TotalRevenue = Round2(response.TotalRevenue)
	response.TotalCommission = Round2(response.TotalCommission)
	response.TotalNetPayout = Round2(response.TotalNetPayout)
	return response
}
