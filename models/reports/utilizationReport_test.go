package reports

import (
	"testing"
	"time"
)

func fleetVehicle(id int, category string, acquired time.Time, retired *time.Time) FleetVehicle {
	return FleetVehicle{
		VehicleId:    id,
		LicensePlate: "TEST",
		Category:     category,
		BranchId:     1,
		AcquiredDate: acquired,
		RetiredDate:  retired,
	}
}

func span(vehicleId int, start, end time.Time, net string) BookingSpan {
	return BookingSpan{VehicleId: vehicleId, StartDate: start, EndDate: end, Net: dec(net)}
}

func TestBuildUtilizationReport_HalfUtilized(t *testing.T) {
	// 30-day window, 15 rented days, 3000 revenue.
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	vehicles := []FleetVehicle{fleetVehicle(1, "SUV", date(2023, 1, 1), nil)}
	spans := []BookingSpan{
		span(1, date(2024, 6, 1), date(2024, 6, 10), "2000"),
		span(1, date(2024, 6, 20), date(2024, 6, 24), "1000"),
	}

	report := buildUtilizationReport(from, to, vehicles, spans)

	if len(report.Vehicles) != 1 {
		t.Fatalf("vehicle rows = %d, want 1", len(report.Vehicles))
	}
	row := report.Vehicles[0]
	if row.DaysAvailable != 30 {
		t.Fatalf("daysAvailable = %d, want 30", row.DaysAvailable)
	}
	if row.DaysRented != 15 {
		t.Fatalf("daysRented = %d, want 15", row.DaysRented)
	}
	if !row.UtilizationPercent.Equal(dec("50")) {
		t.Fatalf("utilizationPercent = %s, want 50", row.UtilizationPercent)
	}
	if !row.RevenuePerDay.Equal(dec("200")) {
		t.Fatalf("revenuePerDay = %s, want 200", row.RevenuePerDay)
	}
}

func TestBuildUtilizationReport_OverlappingBookingsCountOnce(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 10)
	vehicles := []FleetVehicle{fleetVehicle(1, "Sedan", date(2023, 1, 1), nil)}
	spans := []BookingSpan{
		span(1, date(2024, 6, 1), date(2024, 6, 5), "500"),
		span(1, date(2024, 6, 4), date(2024, 6, 8), "400"),
	}

	report := buildUtilizationReport(from, to, vehicles, spans)

	if got := report.Vehicles[0].DaysRented; got != 8 {
		t.Fatalf("daysRented with overlap = %d, want 8", got)
	}
}

func TestBuildUtilizationReport_ClipsToOwnershipLifetime(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	retired := date(2024, 6, 20)
	vehicles := []FleetVehicle{
		fleetVehicle(1, "SUV", date(2024, 6, 11), nil),     // acquired mid-window
		fleetVehicle(2, "SUV", date(2023, 1, 1), &retired), // retired mid-window
	}

	report := buildUtilizationReport(from, to, vehicles, nil)

	if got := report.Vehicles[0].DaysAvailable; got != 20 {
		t.Fatalf("acquired mid-window daysAvailable = %d, want 20", got)
	}
	if got := report.Vehicles[1].DaysAvailable; got != 20 {
		t.Fatalf("retired mid-window daysAvailable = %d, want 20", got)
	}
}

func TestBuildUtilizationReport_ZeroRentedDays(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	vehicles := []FleetVehicle{fleetVehicle(1, "Van", date(2023, 1, 1), nil)}

	report := buildUtilizationReport(from, to, vehicles, nil)

	row := report.Vehicles[0]
	if row.DaysRented != 0 || !row.UtilizationPercent.IsZero() || !row.RevenuePerDay.IsZero() {
		t.Fatalf("idle vehicle row = %+v, want zeros", row)
	}
}

func TestBuildUtilizationReport_CategoryAverageWeightedByDays(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	vehicles := []FleetVehicle{
		fleetVehicle(1, "SUV", date(2023, 1, 1), nil),
		fleetVehicle(2, "SUV", date(2023, 1, 1), nil),
	}
	spans := []BookingSpan{
		span(1, date(2024, 6, 1), date(2024, 6, 30), "6000"), // fully rented
		// vehicle 2 idle
	}

	report := buildUtilizationReport(from, to, vehicles, spans)

	if len(report.ByCategory) != 1 {
		t.Fatalf("category rows = %d, want 1", len(report.ByCategory))
	}
	category := report.ByCategory[0]
	if category.VehicleCount != 2 || category.DaysAvailable != 60 || category.DaysRented != 30 {
		t.Fatalf("category row = %+v", category)
	}
	if !category.UtilizationPercent.Equal(dec("50")) {
		t.Fatalf("category utilization = %s, want 50", category.UtilizationPercent)
	}
}

func TestRentedDays_SpansClippedToWindow(t *testing.T) {
	spans := []BookingSpan{
		span(1, date(2024, 5, 25), date(2024, 6, 5), "0"),  // starts before window
		span(1, date(2024, 6, 28), date(2024, 7, 10), "0"), // ends after window
	}
	got := rentedDays(spans, date(2024, 6, 1), date(2024, 6, 30))
	if got != 8 {
		t.Fatalf("rentedDays = %d, want 8", got)
	}
}
