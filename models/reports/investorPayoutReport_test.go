package reports

import (
	"testing"

	"github.com/fleetfocus/rentals_backend/models"
)

func TestBuildInvestorPayoutPreview_CommissionSplit(t *testing.T) {
	investor := models.Investor{ID: 3, Name: "Aye Chan"}
	rows := []VehicleRevenueRow{
		{VehicleId: 10, InvestorId: 3, LicensePlate: "1A-2345", Category: "SUV", Revenue: dec("3200"), BookingsCount: 4},
		{VehicleId: 11, InvestorId: 3, LicensePlate: "1B-9876", Category: "Sedan", Revenue: dec("1800"), BookingsCount: 2},
	}

	preview := buildInvestorPayoutPreview(investor, date(2024, 1, 1), date(2024, 1, 31), nil, dec("20"), rows)

	if !preview.TotalRevenue.Equal(dec("5000")) {
		t.Fatalf("totalRevenue = %s, want 5000", preview.TotalRevenue)
	}
	if !preview.CommissionAmount.Equal(dec("1000")) {
		t.Fatalf("commissionAmount = %s, want 1000", preview.CommissionAmount)
	}
	if !preview.NetPayout.Equal(dec("4000")) {
		t.Fatalf("netPayout = %s, want 4000", preview.NetPayout)
	}
	if !preview.NetPayout.Equal(preview.TotalRevenue.Sub(preview.CommissionAmount)) {
		t.Fatalf("netPayout %s != totalRevenue - commissionAmount", preview.NetPayout)
	}
	if len(preview.Breakdown) != 2 {
		t.Fatalf("breakdown rows = %d, want 2", len(preview.Breakdown))
	}

	var contributionSum = preview.Breakdown[0].Revenue.Add(preview.Breakdown[1].Revenue)
	if !contributionSum.Equal(preview.TotalRevenue) {
		t.Fatalf("sum(breakdown.revenue) %s != totalRevenue %s", contributionSum, preview.TotalRevenue)
	}
}

func TestBuildInvestorPayoutPreview_RoundsCommission(t *testing.T) {
	investor := models.Investor{ID: 1, Name: "Ko Ko"}
	rows := []VehicleRevenueRow{
		{VehicleId: 5, InvestorId: 1, Revenue: dec("1234.56"), BookingsCount: 3},
	}

	preview := buildInvestorPayoutPreview(investor, date(2024, 1, 1), date(2024, 1, 31), nil, dec("12.5"), rows)

	// 1234.56 * 12.5% = 154.32
	if !preview.CommissionAmount.Equal(dec("154.32")) {
		t.Fatalf("commissionAmount = %s, want 154.32", preview.CommissionAmount)
	}
	if !preview.NetPayout.Equal(dec("1080.24")) {
		t.Fatalf("netPayout = %s, want 1080.24", preview.NetPayout)
	}
}

func TestBuildInvestorPayoutPreview_ZeroActivity(t *testing.T) {
	investor := models.Investor{ID: 7, Name: "Su Su"}

	preview := buildInvestorPayoutPreview(investor, date(2024, 1, 1), date(2024, 1, 31), nil, dec("20"), nil)

	if !preview.TotalRevenue.IsZero() || !preview.CommissionAmount.IsZero() || !preview.NetPayout.IsZero() {
		t.Fatalf("zero-activity preview = %+v, want all-zero totals", preview)
	}
	if preview.Breakdown == nil || len(preview.Breakdown) != 0 {
		t.Fatalf("zero-activity breakdown should be empty, got %+v", preview.Breakdown)
	}
	if preview.InvestorId != 7 {
		t.Fatalf("investorId = %d, want 7", preview.InvestorId)
	}
}

func TestBuildInvestorsReport_GroupsByInvestor(t *testing.T) {
	investors := []models.Investor{
		{ID: 1, Name: "Ko Ko"},
		{ID: 2, Name: "Su Su"},
	}
	rows := []VehicleRevenueRow{
		{VehicleId: 10, InvestorId: 1, Revenue: dec("2000"), BookingsCount: 2},
		{VehicleId: 11, InvestorId: 2, Revenue: dec("1000"), BookingsCount: 1},
		{VehicleId: 12, InvestorId: 1, Revenue: dec("500"), BookingsCount: 1},
	}

	report := buildInvestorsReport(date(2024, 1, 1), date(2024, 1, 31), dec("10"), investors, rows)

	if len(report.Investors) != 2 {
		t.Fatalf("investor rows = %d, want 2", len(report.Investors))
	}
	if !report.TotalRevenue.Equal(dec("3500")) {
		t.Fatalf("totalRevenue = %s, want 3500", report.TotalRevenue)
	}
	if !report.TotalCommission.Equal(dec("350")) {
		t.Fatalf("totalCommission = %s, want 350", report.TotalCommission)
	}
	if !report.TotalNetPayout.Equal(dec("3150")) {
		t.Fatalf("totalNetPayout = %s, want 3150", report.TotalNetPayout)
	}
	if len(report.Investors[0].Breakdown) != 2 || len(report.Investors[1].Breakdown) != 1 {
		t.Fatalf("breakdown sizes = %d/%d", len(report.Investors[0].Breakdown), len(report.Investors[1].Breakdown))
	}
}
