package reports

import (
	"context"
	"sort"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

// FleetVehicle is the slice of a vehicle the utilization calculator needs.
type FleetVehicle struct {
	VehicleId    int
	LicensePlate string
	Category     string
	BranchId     int
	AcquiredDate time.Time
	RetiredDate  *time.Time
}

// BookingSpan is one non-cancelled booking's rented interval plus its net
// revenue, fetched per vehicle for the window.
type BookingSpan struct {
	VehicleId int
	StartDate time.Time
	EndDate   time.Time
	Net       decimal.Decimal
}

type UtilizationRow struct {
	VehicleId          int             `json:"vehicleId"`
	LicensePlate       string          `json:"licensePlate"`
	Category           string          `json:"category"`
	DaysAvailable      int             `json:"daysAvailable"`
	DaysRented         int             `json:"daysRented"`
	UtilizationPercent decimal.Decimal `json:"utilizationPercent"`
	Revenue            decimal.Decimal `json:"revenue"`
	RevenuePerDay      decimal.Decimal `json:"revenuePerDay"`
}

type CategoryUtilizationRow struct {
	Category           string          `json:"category"`
	VehicleCount       int             `json:"vehicleCount"`
	DaysAvailable      int             `json:"daysAvailable"`
	DaysRented         int             `json:"daysRented"`
	UtilizationPercent decimal.Decimal `json:"utilizationPercent"`
}

type UtilizationResponse struct {
	DateFrom   models.DateString        `json:"dateFrom"`
	DateTo     models.DateString        `json:"dateTo"`
	Vehicles   []UtilizationRow         `json:"vehicles"`
	ByCategory []CategoryUtilizationRow `json:"byCategory"`
}

type UtilizationFilter struct {
	BranchId        *int
	VehicleCategory *string
}

func GetUtilizationReport(ctx context.Context, dateFrom, dateTo time.Time, filter UtilizationFilter) (*UtilizationResponse, error) {
	started := time.Now()

	if day(dateTo).Before(day(dateFrom)) {
		return nil, utils.ErrInvalidDateRange
	}

	vehicles, err := fetchFleetVehicles(ctx, dateFrom, dateTo, filter)
	if err != nil {
		return nil, err
	}
	spans, err := fetchBookingSpans(ctx, dateFrom, dateTo, filter)
	if err != nil {
		return nil, err
	}

	response := buildUtilizationReport(dateFrom, dateTo, vehicles, spans)
	logSlowReport(ctx, "utilization", started, map[string]any{"vehicles": len(vehicles)})
	return response, nil
}

// fetchFleetVehicles selects vehicles whose ownership lifetime overlaps the
// window at all. Retired vehicles still report for the days they were owned.
func fetchFleetVehicles(ctx context.Context, dateFrom, dateTo time.Time, filter UtilizationFilter) ([]FleetVehicle, error) {
	db := config.GetDB()

	sqlTemplate := `
    SELECT
        v.id AS vehicle_id,
        v.license_plate,
        v.category,
        v.branch_id,
        v.acquired_date,
        v.retired_date
    FROM
        vehicles v
    WHERE
        v.acquired_date <= @dateTo
        AND (v.retired_date IS NULL OR v.retired_date >= @dateFrom)
        {{- if .branchId }} AND v.branch_id = @branchId {{- end}}
        {{- if .vehicleCategory }} AND v.category = @vehicleCategory {{- end}}
    ORDER BY
        v.id;
`

	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"branchId":        utils.DereferencePtr(filter.BranchId, 0),
		"vehicleCategory": utils.DereferencePtr(filter.VehicleCategory, ""),
	})
	if err != nil {
		return nil, err
	}

	var vehicles []FleetVehicle
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"dateFrom":        models.NewDateString(dateFrom),
		"dateTo":          models.NewDateString(dateTo),
		"branchId":        filter.BranchId,
		"vehicleCategory": filter.VehicleCategory,
	}).Scan(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func fetchBookingSpans(ctx context.Context, dateFrom, dateTo time.Time, filter UtilizationFilter) ([]BookingSpan, error) {
	db := config.GetDB()

	sqlTemplate := `
    SELECT
        b.vehicle_id,
        b.start_date,
        b.end_date,
        b.gross_amount - LEAST(b.discount_amount, b.gross_amount) AS net
    FROM
        bookings b
        INNER JOIN vehicles v ON v.id = b.vehicle_id
    WHERE
        b.start_date <= @dateTo
        AND b.end_date >= @dateFrom
        AND b.current_status <> 'Cancelled'
        {{- if .branchId }} AND v.branch_id = @branchId {{- end}}
        {{- if .vehicleCategory }} AND v.category = @vehicleCategory {{- end}}
    ORDER BY
        b.vehicle_id, b.start_date;
`

	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"branchId":        utils.DereferencePtr(filter.BranchId, 0),
		"vehicleCategory": utils.DereferencePtr(filter.VehicleCategory, ""),
	})
	if err != nil {
		return nil, err
	}

	var spans []BookingSpan
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"dateFrom":        models.NewDateString(dateFrom),
		"dateTo":          models.NewDateString(dateTo),
		"branchId":        filter.BranchId,
		"vehicleCategory": filter.VehicleCategory,
	}).Scan(&spans).Error; err != nil {
		return nil, err
	}
	return spans, nil
}

// rentedDays counts the union of calendar days covered by the spans, clipped
// to [from, to]. Overlapping bookings count each day once.
func rentedDays(spans []BookingSpan, from, to time.Time) int {
	type interval struct{ start, end time.Time }
	clipped := make([]interval, 0, len(spans))
	for _, s := range spans {
		start, end := day(s.StartDate), day(s.EndDate)
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if end.Before(start) {
			continue
		}
		clipped = append(clipped, interval{start, end})
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].start.Before(clipped[j].start) })

	days := 0
	var curStart, curEnd time.Time
	haveCur := false
	for _, iv := range clipped {
		if !haveCur {
			curStart, curEnd, haveCur = iv.start, iv.end, true
			continue
		}
		// Merge when touching or overlapping (next day continues the run).
		if !iv.start.After(curEnd.AddDate(0, 0, 1)) {
			if iv.end.After(curEnd) {
				curEnd = iv.end
			}
			continue
		}
		days += DaysInclusive(curStart, curEnd)
		curStart, curEnd = iv.start, iv.end
	}
	if haveCur {
		days += DaysInclusive(curStart, curEnd)
	}
	return days
}

func buildUtilizationReport(dateFrom, dateTo time.Time, vehicles []FleetVehicle, spans []BookingSpan) *UtilizationResponse {
	from, to := day(dateFrom), day(dateTo)

	spansByVehicle := map[int][]BookingSpan{}
	for _, span := range spans {
		spansByVehicle[span.VehicleId] = append(spansByVehicle[span.VehicleId], span)
	}

	response := &UtilizationResponse{
		DateFrom: models.NewDateString(dateFrom),
		DateTo:   models.NewDateString(dateTo),
		Vehicles: []UtilizationRow{},
	}
	categories := map[string]*CategoryUtilizationRow{}

	for _, vehicle := range vehicles {
		// Clip the window to the vehicle's ownership lifetime.
		availFrom, availTo := from, to
		if acquired := day(vehicle.AcquiredDate); acquired.After(availFrom) {
			availFrom = acquired
		}
		if vehicle.RetiredDate != nil {
			if retired := day(*vehicle.RetiredDate); retired.Before(availTo) {
				availTo = retired
			}
		}
		daysAvailable := DaysInclusive(availFrom, availTo)

		vehicleSpans := spansByVehicle[vehicle.VehicleId]
		daysRented := rentedDays(vehicleSpans, availFrom, availTo)
		if daysRented > daysAvailable {
			daysRented = daysAvailable
		}

		var revenue decimal.Decimal
		for _, span := range vehicleSpans {
			startDay := day(span.StartDate)
			if !startDay.Before(from) && !startDay.After(to) {
				revenue = revenue.Add(span.Net)
			}
		}

		row := UtilizationRow{
			VehicleId:          vehicle.VehicleId,
			LicensePlate:       vehicle.LicensePlate,
			Category:           vehicle.Category,
			DaysAvailable:      daysAvailable,
			DaysRented:         daysRented,
			UtilizationPercent: RatioPercent(decimal.NewFromInt(int64(daysRented)), decimal.NewFromInt(int64(daysAvailable))),
			Revenue:            Round2(revenue),
			RevenuePerDay:      PerUnit(revenue, daysRented),
		}
		response.Vehicles = append(response.Vehicles, row)

		category, ok := categories[vehicle.Category]
		if !ok {
			category = &CategoryUtilizationRow{Category: vehicle.Category}
			categories[vehicle.Category] = category
		}
		category.VehicleCount++
		category.DaysAvailable += daysAvailable
		category.DaysRented += daysRented
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		category := categories[name]
		category.UtilizationPercent = RatioPercent(
			decimal.NewFromInt(int64(category.DaysRented)),
			decimal.NewFromInt(int64(category.DaysAvailable)))
		response.ByCategory = append(response.ByCategory, *category)
	}

	return response
}
