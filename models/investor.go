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

// Investor owns vehicles in the fleet. CommissionPercent is the operator's cut
// of the revenue attributable to the investor's vehicles; it is business input,
// not something the payout calculator decides.
type Investor struct {
	ID                int             `gorm:"primary_key" json:"id"`
	Name              string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Email             string          `gorm:"size:255" json:"email"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"commission_percent"`
	IsActive          *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetInvestor(ctx context.Context, id int) (*Investor, error) {
	db := config.GetDB()
	var investor Investor
	if err := db.WithContext(ctx).First(&investor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: investor %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &investor, nil
}

func ListActiveInvestors(ctx context.Context) ([]Investor, error) {
	db := config.GetDB()
	var investors []Investor
	if err := db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&investors).Error; err != nil {
		return nil, err
	}
	return investors, nil
}
