package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// Well-known category codes. The cost aggregator maps these onto the
// fixed-cost breakdown; anything else lands in "other".
const (
	CategoryCodeFuel           = "fuel"
	CategoryCodeMaintEngine    = "maintenance_engine"
	CategoryCodeMaintTires     = "maintenance_tires"
	CategoryCodeMaintBody      = "maintenance_body"
	CategoryCodeMaintService   = "maintenance_service"
	CategoryCodeInvestorPayout = "investor_payout"
	CategoryCodeSalaries       = "salaries"
	CategoryCodeRent           = "rent"
	CategoryCodeUtilities      = "utilities"
	CategoryCodeMarketing      = "marketing"
	CategoryCodeOther          = "other"
)

type ExpenseCategory struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	Code            string              `gorm:"size:100;not null;uniqueIndex" json:"code" binding:"required"`
	Name            string              `gorm:"size:255;not null" json:"name" binding:"required"`
	Type            ExpenseCategoryType `gorm:"type:enum('COGS','OPEX');not null" json:"type" binding:"required"`
	MaintenanceType *MaintenanceType    `gorm:"type:enum('Engine','Tires','Body','Service');default:null" json:"maintenance_type"`
	IsActive        *bool               `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetExpenseCategory(ctx context.Context, id int) (*ExpenseCategory, error) {
	db := config.GetDB()
	var category ExpenseCategory
	if err := db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: expense category %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &category, nil
}

func maintType(t MaintenanceType) *MaintenanceType { return &t }

func defaultExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		{Code: CategoryCodeFuel, Name: "Fuel", Type: ExpenseCategoryTypeCOGS},
		{Code: CategoryCodeMaintEngine, Name: "Maintenance - Engine", Type: ExpenseCategoryTypeCOGS, MaintenanceType: maintType(MaintenanceTypeEngine)},
		{Code: CategoryCodeMaintTires, Name: "Maintenance - Tires", Type: ExpenseCategoryTypeCOGS, MaintenanceType: maintType(MaintenanceTypeTires)},
		{Code: CategoryCodeMaintBody, Name: "Maintenance - Body", Type: ExpenseCategoryTypeCOGS, MaintenanceType: maintType(MaintenanceTypeBody)},
		{Code: CategoryCodeMaintService, Name: "Maintenance - Service", Type: ExpenseCategoryTypeCOGS, MaintenanceType: maintType(MaintenanceTypeService)},
		{Code: CategoryCodeInvestorPayout, Name: "Investor Payouts", Type: ExpenseCategoryTypeCOGS},
		{Code: CategoryCodeSalaries, Name: "Salaries", Type: ExpenseCategoryTypeOPEX},
		{Code: CategoryCodeRent, Name: "Rent", Type: ExpenseCategoryTypeOPEX},
		{Code: CategoryCodeUtilities, Name: "Utilities", Type: ExpenseCategoryTypeOPEX},
		{Code: CategoryCodeMarketing, Name: "Marketing", Type: ExpenseCategoryTypeOPEX},
		{Code: CategoryCodeOther, Name: "Other", Type: ExpenseCategoryTypeOPEX},
	}
}

// EnsureDefaultExpenseCategories seeds the well-known categories. It is an
// idempotent startup step: main() calls it once after the DB is connected, so
// request-path code never has to poll an "ensured" flag.
func EnsureDefaultExpenseCategories(ctx context.Context) error {
	db := config.GetDB()
	for _, category := range defaultExpenseCategories() {
		c := category
		err := db.WithContext(ctx).
			Where(ExpenseCategory{Code: c.Code}).
			Attrs(c).
			FirstOrCreate(&c).Error
		if err != nil {
			return fmt.Errorf("seed expense category %q: %w", category.Code, err)
		}
	}
	return nil
}
