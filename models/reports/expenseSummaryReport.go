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

// ExpenseCategoryTotal is one pre-grouped row per category touched in the
// window. Expenses whose category row is missing come back with an empty code
// and are reported under "Unknown" as OPEX instead of failing the report.
type ExpenseCategoryTotal struct {
	Code            string
	Name            string
	Type            models.ExpenseCategoryType
	MaintenanceType *models.MaintenanceType
	Amount          decimal.Decimal
}

type CategoryAmountRow struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type MaintenanceTypeRow struct {
	MaintenanceType models.MaintenanceType `json:"maintenanceType"`
	Amount          decimal.Decimal        `json:"amount"`
}

// FixedCostBreakdown itemizes OPEX into the fixed buckets the P&L view shows.
// Categories without a dedicated bucket accumulate into Other.
type FixedCostBreakdown struct {
	Salaries  decimal.Decimal `json:"salaries"`
	Rent      decimal.Decimal `json:"rent"`
	Utilities decimal.Decimal `json:"utilities"`
	Other     decimal.Decimal `json:"other"`
}

type ExpenseSummaryResponse struct {
	DateFrom          models.DateString    `json:"dateFrom"`
	DateTo            models.DateString    `json:"dateTo"`
	CogsTotal         decimal.Decimal      `json:"cogsTotal"`
	CogsByCategory    []CategoryAmountRow  `json:"cogsByCategory"`
	OpexTotal         decimal.Decimal      `json:"opexTotal"`
	OpexByCategory    []CategoryAmountRow  `json:"opexByCategory"`
	MaintenanceByType []MaintenanceTypeRow `json:"maintenanceByType"`
	FixedCosts        FixedCostBreakdown   `json:"fixedCosts"`
}

func GetExpenseSummary(ctx context.Context, dateFrom, dateTo time.Time, branchId *int) (*ExpenseSummaryResponse, error) {
	started := time.Now()

	if day(dateTo).Before(day(dateFrom)) {
		return nil, utils.ErrInvalidDateRange
	}

	totals, err := fetchExpenseCategoryTotals(ctx, dateFrom, dateTo, branchId)
	if err != nil {
		return nil, err
	}

	response := buildExpenseSummary(dateFrom, dateTo, totals)
	logSlowReport(ctx, "expenses", started, map[string]any{"categories": len(totals)})
	return response, nil
}

func fetchExpenseCategoryTotals(ctx context.Context, dateFrom, dateTo time.Time, branchId *int) ([]ExpenseCategoryTotal, error) {
	db := config.GetDB()

	sqlTemplate := `
    SELECT
        COALESCE(c.code, '') AS code,
        COALESCE(c.name, '') AS name,
        COALESCE(c.type, 'OPEX') AS type,
        c.maintenance_type,
        SUM(e.amount) AS amount
    FROM
        expenses e
        LEFT JOIN expense_categories c ON c.id = e.category_id
    WHERE
        e.expense_date >= @dateFrom
        AND e.expense_date <= @dateTo
        AND e.deleted_at IS NULL
        {{- if .branchId }} AND e.branch_id = @branchId {{- end}}
    GROUP BY
        c.code, c.name, c.type, c.maintenance_type
    ORDER BY
        c.code;
`

	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"branchId": utils.DereferencePtr(branchId, 0),
	})
	if err != nil {
		return nil, err
	}

	var totals []ExpenseCategoryTotal
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"dateFrom": models.NewDateString(dateFrom),
		"dateTo":   models.NewDateString(dateTo),
		"branchId": branchId,
	}).Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

func buildExpenseSummary(dateFrom, dateTo time.Time, totals []ExpenseCategoryTotal) *ExpenseSummaryResponse {
	response := &ExpenseSummaryResponse{
		DateFrom: models.NewDateString(dateFrom),
		DateTo:   models.NewDateString(dateTo),
	}

	maintenance := map[models.MaintenanceType]decimal.Decimal{}

	for _, t := range totals {
		row := CategoryAmountRow{Code: t.Code, Name: t.Name, Amount: Round2(t.Amount)}
		if row.Name == "" {
			row.Name = "Unknown"
		}

		switch t.Type {
		case models.ExpenseCategoryTypeCOGS:
			response.CogsTotal = response.CogsTotal.Add(t.Amount)
			response.CogsByCategory = append(response.CogsByCategory, row)
		default:
			response.OpexTotal = response.OpexTotal.Add(t.Amount)
			response.OpexByCategory = append(response.OpexByCategory, row)
		}

		if t.MaintenanceType != nil {
			maintenance[*t.MaintenanceType] = maintenance[*t.MaintenanceType].Add(t.Amount)
		}

		switch t.Code {
		case models.CategoryCodeSalaries:
			response.FixedCosts.Salaries = response.FixedCosts.Salaries.Add(t.Amount)
		case models.CategoryCodeRent:
			response.FixedCosts.Rent = response.FixedCosts.Rent.Add(t.Amount)
		case models.CategoryCodeUtilities:
			response.FixedCosts.Utilities = response.FixedCosts.Utilities.Add(t.Amount)
		default:
			if t.Type != models.ExpenseCategoryTypeCOGS {
				response.FixedCosts.Other = response.FixedCosts.Other.Add(t.Amount)
			}
		}
	}

	response.CogsTotal = Round2(response.CogsTotal)
	response.OpexTotal = Round2(response.OpexTotal)
	for i := range response.CogsByCategory {
		response.CogsByCategory[i].Percentage = RatioPercent(response.CogsByCategory[i].Amount, response.CogsTotal)
	}
	for i := range response.OpexByCategory {
		response.OpexByCategory[i].Percentage = RatioPercent(response.OpexByCategory[i].Amount, response.OpexTotal)
	}

	for maintenanceType, amount := range maintenance {
		response.MaintenanceByType = append(response.MaintenanceByType, MaintenanceTypeRow{
			MaintenanceType: maintenanceType,
			Amount:          Round2(amount),
		})
	}
	sort.Slice(response.MaintenanceByType, func(i, j int) bool {
		return response.MaintenanceByType[i].MaintenanceType < response.MaintenanceByType[j].MaintenanceType
	})

	response.FixedCosts.Salaries = Round2(response.FixedCosts.Salaries)
	response.FixedCosts.Rent = Round2(response.FixedCosts.Rent)
	response.FixedCosts.Utilities = Round2(response.FixedCosts.Utilities)
	response.FixedCosts.Other = Round2(response.FixedCosts.Other)

	return response
}
