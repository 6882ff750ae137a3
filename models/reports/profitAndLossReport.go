package reports

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

// CompareMode selects the prior period a P&L is compared against. It is a
// closed set; anything else is rejected at the boundary.
type CompareMode string

const (
	CompareNone           CompareMode = "NONE"
	ComparePreviousPeriod CompareMode = "PREVIOUS_PERIOD"
	CompareYearOverYear   CompareMode = "YEAR_OVER_YEAR"
)

func ParseCompareMode(s string) (CompareMode, error) {
	if s == "" {
		return CompareNone, nil
	}
	switch CompareMode(strings.ToUpper(s)) {
	case CompareNone, ComparePreviousPeriod, CompareYearOverYear:
		return CompareMode(strings.ToUpper(s)), nil
	}
	return "", fmt.Errorf("invalid compareWith %q", s)
}

type PnlTotals struct {
	Revenue     decimal.Decimal `json:"revenue"`
	Cogs        decimal.Decimal `json:"cogs"`
	Opex        decimal.Decimal `json:"opex"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	NetProfit   decimal.Decimal `json:"netProfit"`
	GrossMargin decimal.Decimal `json:"grossMargin"`
	NetMargin   decimal.Decimal `json:"netMargin"`
}

type MetricComparison struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// MarginComparison carries a percentage-point delta instead of a
// percent-of-previous change; margins are already ratios.
type MarginComparison struct {
	Current      decimal.Decimal `json:"current"`
	Previous     decimal.Decimal `json:"previous"`
	ChangePoints decimal.Decimal `json:"changePoints"`
}

type PnlComparison struct {
	Mode     CompareMode       `json:"mode"`
	DateFrom models.DateString `json:"dateFrom"`
	DateTo   models.DateString `json:"dateTo"`

	// PreviousIncomplete marks a prior window that starts before the earliest
	// meaningful data. Its zero-based totals are legitimate empty periods.
	PreviousIncomplete bool `json:"previousIncomplete"`

	Revenue     MetricComparison `json:"revenue"`
	Cogs        MetricComparison `json:"cogs"`
	Opex        MetricComparison `json:"opex"`
	GrossProfit MetricComparison `json:"grossProfit"`
	NetProfit   MetricComparison `json:"netProfit"`
	GrossMargin MarginComparison `json:"grossMargin"`
	NetMargin   MarginComparison `json:"netMargin"`
}

type PnlReportResponse struct {
	DateFrom   models.DateString `json:"dateFrom"`
	DateTo     models.DateString `json:"dateTo"`
	PeriodType Granularity       `json:"periodType"`

	Totals         PnlTotals     `json:"totals"`
	RevenueSummary RevenueTotals `json:"revenueSummary"`

	CogsByCategory    []CategoryAmountRow  `json:"cogsByCategory"`
	OpexByCategory    []CategoryAmountRow  `json:"opexByCategory"`
	MaintenanceByType []MaintenanceTypeRow `json:"maintenanceByType"`
	FixedCosts        FixedCostBreakdown   `json:"fixedCosts"`

	Comparison *PnlComparison `json:"comparison,omitempty"`
}

func GetProfitAndLossReport(ctx context.Context, dateFrom, dateTo time.Time, periodType Granularity, branchId *int, compareWith CompareMode) (*PnlReportResponse, error) {
	started := time.Now()

	if day(dateTo).Before(day(dateFrom)) {
		return nil, utils.ErrInvalidDateRange
	}

	revenue, expenses, err := fetchPnlInputs(ctx, dateFrom, dateTo, branchId)
	if err != nil {
		return nil, err
	}

	response := &PnlReportResponse{
		DateFrom:          models.NewDateString(dateFrom),
		DateTo:            models.NewDateString(dateTo),
		PeriodType:        periodType,
		Totals:            buildPnlTotals(revenue, expenses),
		RevenueSummary:    revenue,
		CogsByCategory:    expenses.CogsByCategory,
		OpexByCategory:    expenses.OpexByCategory,
		MaintenanceByType: expenses.MaintenanceByType,
		FixedCosts:        expenses.FixedCosts,
	}

	if compareWith != CompareNone && compareWith != "" {
		prevFrom, prevTo := shiftPeriod(dateFrom, dateTo, compareWith)
		prevRevenue, prevExpenses, err := fetchPnlInputs(ctx, prevFrom, prevTo, branchId)
		if err != nil {
			return nil, err
		}
		comparison := buildPnlComparison(compareWith, prevFrom, prevTo,
			response.Totals, buildPnlTotals(prevRevenue, prevExpenses))
		response.Comparison = &comparison
	}

	logSlowReport(ctx, "pnl", started, map[string]any{"compareWith": string(compareWith)})
	return response, nil
}

func fetchPnlInputs(ctx context.Context, dateFrom, dateTo time.Time, branchId *int) (RevenueTotals, *ExpenseSummaryResponse, error) {
	records, err := fetchRevenueRecords(ctx, dateFrom, dateTo, RevenueFilter{BranchId: branchId})
	if err != nil {
		return RevenueTotals{}, nil, err
	}
	var revenue RevenueTotals
	for _, record := range records {
		revenue.add(record)
	}
	revenue.round()

	totals, err := fetchExpenseCategoryTotals(ctx, dateFrom, dateTo, branchId)
	if err != nil {
		return RevenueTotals{}, nil, err
	}
	return revenue, buildExpenseSummary(dateFrom, dateTo, totals), nil
}

func buildPnlTotals(revenue RevenueTotals, expenses *ExpenseSummaryResponse) PnlTotals {
	grossProfit := revenue.NetRevenue.Sub(expenses.CogsTotal)
	netProfit := grossProfit.Sub(expenses.OpexTotal)
	return PnlTotals{
		Revenue:     Round2(revenue.NetRevenue),
		Cogs:        expenses.CogsTotal,
		Opex:        expenses.OpexTotal,
		GrossProfit: Round2(grossProfit),
		NetProfit:   Round2(netProfit),
		GrossMargin: RatioPercent(grossProfit, revenue.NetRevenue),
		NetMargin:   RatioPercent(netProfit, revenue.NetRevenue),
	}
}

// shiftPeriod derives the comparison window. PREVIOUS_PERIOD slides the window
// back by its own inclusive length; YEAR_OVER_YEAR moves both ends back one
// calendar year keeping day-of-month.
func shiftPeriod(from, to time.Time, mode CompareMode) (time.Time, time.Time) {
	from, to = day(from), day(to)
	switch mode {
	case CompareYearOverYear:
		return from.AddDate(-1, 0, 0), to.AddDate(-1, 0, 0)
	default:
		length := DaysInclusive(from, to)
		prevTo := from.AddDate(0, 0, -1)
		return prevTo.AddDate(0, 0, -(length - 1)), prevTo
	}
}

// earliestReportDate is a data-quality floor: windows before it hold no
// meaningful records. Env: REPORT_EARLIEST_DATE (YYYY-MM-DD), unset means no
// floor.
func earliestReportDate() (time.Time, bool) {
	v := strings.TrimSpace(os.Getenv("REPORT_EARLIEST_DATE"))
	if v == "" {
		return time.Time{}, false
	}
	parsed, err := models.ParseDateString(v)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.Time(), true
}

func compareMetric(current, previous decimal.Decimal) MetricComparison {
	return MetricComparison{
		Current:       current,
		Previous:      previous,
		Change:        Round2(current.Sub(previous)),
		ChangePercent: ChangePercent(current, previous),
	}
}

func compareMargin(current, previous decimal.Decimal) MarginComparison {
	return MarginComparison{
		Current:      current,
		Previous:     previous,
		ChangePoints: Round2(current.Sub(previous)),
	}
}

func buildPnlComparison(mode CompareMode, prevFrom, prevTo time.Time, current, previous PnlTotals) PnlComparison {
	comparison := PnlComparison{
		Mode:        mode,
		DateFrom:    models.NewDateString(prevFrom),
		DateTo:      models.NewDateString(prevTo),
		Revenue:     compareMetric(current.Revenue, previous.Revenue),
		Cogs:        compareMetric(current.Cogs, previous.Cogs),
		Opex:        compareMetric(current.Opex, previous.Opex),
		GrossProfit: compareMetric(current.GrossProfit, previous.GrossProfit),
		NetProfit:   compareMetric(current.NetProfit, previous.NetProfit),
		GrossMargin: compareMargin(current.GrossMargin, previous.GrossMargin),
		NetMargin:   compareMargin(current.NetMargin, previous.NetMargin),
	}
	if floor, ok := earliestReportDate(); ok && day(prevFrom).Before(floor) {
		comparison.PreviousIncomplete = true
	}
	return comparison
}
