package reports

import (
	"testing"

	"github.com/fleetfocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

func maintPtr(t models.MaintenanceType) *models.MaintenanceType { return &t }

func TestBuildExpenseSummary_TotalsMatchCategorySums(t *testing.T) {
	totals := []ExpenseCategoryTotal{
		{Code: models.CategoryCodeFuel, Name: "Fuel", Type: models.ExpenseCategoryTypeCOGS, Amount: dec("1500.40")},
		{Code: models.CategoryCodeMaintEngine, Name: "Maintenance - Engine", Type: models.ExpenseCategoryTypeCOGS, MaintenanceType: maintPtr(models.MaintenanceTypeEngine), Amount: dec("800")},
		{Code: models.CategoryCodeMaintTires, Name: "Maintenance - Tires", Type: models.ExpenseCategoryTypeCOGS, MaintenanceType: maintPtr(models.MaintenanceTypeTires), Amount: dec("200.60")},
		{Code: models.CategoryCodeSalaries, Name: "Salaries", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("3000")},
		{Code: models.CategoryCodeRent, Name: "Rent", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("1200")},
		{Code: models.CategoryCodeMarketing, Name: "Marketing", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("450.50")},
	}

	summary := buildExpenseSummary(date(2024, 1, 1), date(2024, 1, 31), totals)

	var cogsSum, opexSum decimal.Decimal
	for _, row := range summary.CogsByCategory {
		cogsSum = cogsSum.Add(row.Amount)
	}
	for _, row := range summary.OpexByCategory {
		opexSum = opexSum.Add(row.Amount)
	}
	if !cogsSum.Equal(summary.CogsTotal) {
		t.Fatalf("sum(cogsByCategory) %s != cogsTotal %s", cogsSum, summary.CogsTotal)
	}
	if !opexSum.Equal(summary.OpexTotal) {
		t.Fatalf("sum(opexByCategory) %s != opexTotal %s", opexSum, summary.OpexTotal)
	}
	if !summary.CogsTotal.Equal(dec("2501")) {
		t.Fatalf("cogsTotal = %s, want 2501", summary.CogsTotal)
	}
	if !summary.OpexTotal.Equal(dec("4650.50")) {
		t.Fatalf("opexTotal = %s, want 4650.50", summary.OpexTotal)
	}

	var pctSum decimal.Decimal
	for _, row := range summary.CogsByCategory {
		pctSum = pctSum.Add(row.Percentage)
	}
	// Percentages are rounded individually; the sum stays within tolerance.
	if pctSum.Sub(dec("100")).Abs().GreaterThan(dec("0.03")) {
		t.Fatalf("cogs percentages sum to %s", pctSum)
	}
}

func TestBuildExpenseSummary_FixedCostMapping(t *testing.T) {
	totals := []ExpenseCategoryTotal{
		{Code: models.CategoryCodeSalaries, Name: "Salaries", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("3000")},
		{Code: models.CategoryCodeRent, Name: "Rent", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("1200")},
		{Code: models.CategoryCodeUtilities, Name: "Utilities", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("300")},
		{Code: models.CategoryCodeMarketing, Name: "Marketing", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("500")},
		{Code: models.CategoryCodeOther, Name: "Other", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("75")},
		{Code: models.CategoryCodeFuel, Name: "Fuel", Type: models.ExpenseCategoryTypeCOGS, Amount: dec("900")},
	}

	summary := buildExpenseSummary(date(2024, 1, 1), date(2024, 1, 31), totals)

	if !summary.FixedCosts.Salaries.Equal(dec("3000")) {
		t.Fatalf("fixed salaries = %s", summary.FixedCosts.Salaries)
	}
	if !summary.FixedCosts.Rent.Equal(dec("1200")) {
		t.Fatalf("fixed rent = %s", summary.FixedCosts.Rent)
	}
	if !summary.FixedCosts.Utilities.Equal(dec("300")) {
		t.Fatalf("fixed utilities = %s", summary.FixedCosts.Utilities)
	}
	// Marketing and other OPEX categories fall into Other; COGS never does.
	if !summary.FixedCosts.Other.Equal(dec("575")) {
		t.Fatalf("fixed other = %s, want 575", summary.FixedCosts.Other)
	}
}

func TestBuildExpenseSummary_MaintenanceByType(t *testing.T) {
	totals := []ExpenseCategoryTotal{
		{Code: models.CategoryCodeMaintEngine, Name: "Maintenance - Engine", Type: models.ExpenseCategoryTypeCOGS, MaintenanceType: maintPtr(models.MaintenanceTypeEngine), Amount: dec("400")},
		{Code: models.CategoryCodeMaintService, Name: "Maintenance - Service", Type: models.ExpenseCategoryTypeCOGS, MaintenanceType: maintPtr(models.MaintenanceTypeService), Amount: dec("150")},
	}

	summary := buildExpenseSummary(date(2024, 1, 1), date(2024, 1, 31), totals)

	if len(summary.MaintenanceByType) != 2 {
		t.Fatalf("maintenanceByType rows = %d, want 2", len(summary.MaintenanceByType))
	}
	found := map[models.MaintenanceType]decimal.Decimal{}
	for _, row := range summary.MaintenanceByType {
		found[row.MaintenanceType] = row.Amount
	}
	if !found[models.MaintenanceTypeEngine].Equal(dec("400")) || !found[models.MaintenanceTypeService].Equal(dec("150")) {
		t.Fatalf("maintenanceByType = %+v", summary.MaintenanceByType)
	}
}

func TestBuildExpenseSummary_UnknownCategory(t *testing.T) {
	totals := []ExpenseCategoryTotal{
		{Code: "", Name: "", Type: models.ExpenseCategoryTypeOPEX, Amount: dec("120")},
	}

	summary := buildExpenseSummary(date(2024, 1, 1), date(2024, 1, 31), totals)

	if len(summary.OpexByCategory) != 1 || summary.OpexByCategory[0].Name != "Unknown" {
		t.Fatalf("opexByCategory = %+v, want single Unknown row", summary.OpexByCategory)
	}
	if !summary.OpexTotal.Equal(dec("120")) {
		t.Fatalf("opexTotal = %s, want 120", summary.OpexTotal)
	}
	if !summary.FixedCosts.Other.Equal(dec("120")) {
		t.Fatalf("unknown category should land in fixed Other, got %s", summary.FixedCosts.Other)
	}
}
