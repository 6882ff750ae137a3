package workflow

import (
	"context"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/models/reports"
)

// invalidateExpenseReports must run before the mutation result is returned:
// the next P&L read has to see the new expense.
func invalidateExpenseReports(funcName string) {
	if err := reportCache().Invalidate(reports.FamilyPnl); err != nil {
		config.LogError(config.GetLogger(), "expenseWorkflow", funcName, "invalidate report cache", nil, err)
	}
}

func CreateExpense(ctx context.Context, input models.NewExpense) (*models.Expense, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	expense := models.Expense{
		CategoryId:  input.CategoryId,
		BranchId:    input.BranchId,
		VehicleId:   input.VehicleId,
		InvestorId:  input.InvestorId,
		ExpenseDate: input.ExpenseDate.Time(),
		Amount:      input.Amount,
		Reference:   input.Reference,
		Notes:       input.Notes,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&expense).Error; err != nil {
		config.LogError(config.GetLogger(), "expenseWorkflow", "CreateExpense", "insert expense", input, err)
		return nil, err
	}

	invalidateExpenseReports("CreateExpense")
	publishAuditFact(ctx, expense.ID, "expense", "create", nil, expense)
	return &expense, nil
}

func UpdateExpense(ctx context.Context, id int, input models.NewExpense) (*models.Expense, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}
	expense, err := models.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *expense

	expense.CategoryId = input.CategoryId
	expense.BranchId = input.BranchId
	expense.VehicleId = input.VehicleId
	expense.InvestorId = input.InvestorId
	expense.ExpenseDate = input.ExpenseDate.Time()
	expense.Amount = input.Amount
	expense.Reference = input.Reference
	expense.Notes = input.Notes

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(expense).Error; err != nil {
		config.LogError(config.GetLogger(), "expenseWorkflow", "UpdateExpense", "save expense", input, err)
		return nil, err
	}

	invalidateExpenseReports("UpdateExpense")
	publishAuditFact(ctx, expense.ID, "expense", "update", old, expense)
	return expense, nil
}

func DeleteExpense(ctx context.Context, id int) error {
	expense, err := models.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(expense).Error; err != nil {
		config.LogError(config.GetLogger(), "expenseWorkflow", "DeleteExpense", "soft delete expense", id, err)
		return err
	}

	invalidateExpenseReports("DeleteExpense")
	publishAuditFact(ctx, expense.ID, "expense", "delete", expense, nil)
	return nil
}
