package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Expense struct {
	ID          int             `gorm:"primary_key" json:"id"`
	CategoryId  int             `gorm:"index;not null" json:"category_id" binding:"required"`
	BranchId    int             `gorm:"index" json:"branch_id"`
	VehicleId   int             `gorm:"index" json:"vehicle_id"`
	InvestorId  int             `gorm:"index" json:"investor_id"`
	ExpenseDate time.Time       `gorm:"not null;index" json:"expense_date" binding:"required"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Reference   string          `gorm:"size:255" json:"reference"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

type NewExpense struct {
	CategoryId  int             `json:"category_id" binding:"required"`
	BranchId    int             `json:"branch_id"`
	VehicleId   int             `json:"vehicle_id"`
	InvestorId  int             `json:"investor_id"`
	ExpenseDate DateString      `json:"expense_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
}

// Validate checks referenced entities for both create & update.
func (input *NewExpense) Validate(ctx context.Context) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("expense amount must be positive")
	}
	if _, err := GetExpenseCategory(ctx, input.CategoryId); err != nil {
		return err
	}
	if input.BranchId > 0 {
		if _, err := GetBranch(ctx, input.BranchId); err != nil {
			return err
		}
	}
	if input.VehicleId > 0 {
		if _, err := GetVehicle(ctx, input.VehicleId); err != nil {
			return err
		}
	}
	if input.InvestorId > 0 {
		if _, err := GetInvestor(ctx, input.InvestorId); err != nil {
			return err
		}
	}
	return nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	db := config.GetDB()
	var expense Expense
	if err := db.WithContext(ctx).First(&expense, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: expense %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &expense, nil
}
