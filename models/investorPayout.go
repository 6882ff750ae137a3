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

// InvestorPayout is the persisted result of the payout calculator. Totals are
// written once at creation; only the lifecycle status changes afterwards.
type InvestorPayout struct {
	ID                int                  `gorm:"primary_key" json:"id"`
	InvestorId        int                  `gorm:"index;not null" json:"investor_id"`
	BranchId          int                  `gorm:"index" json:"branch_id"`
	PeriodFrom        time.Time            `gorm:"not null" json:"period_from"`
	PeriodTo          time.Time            `gorm:"not null" json:"period_to"`
	TotalRevenue      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_revenue"`
	CommissionPercent decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"commission_percent"`
	CommissionAmount  decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"commission_amount"`
	NetPayout         decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"net_payout"`
	CurrentStatus     PayoutStatus         `gorm:"type:enum('DRAFT','PENDING','PAID','CANCELLED');default:'DRAFT'" json:"current_status"`
	Items             []InvestorPayoutItem `gorm:"foreignKey:PayoutId" json:"items"`
	CreatedAt         time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvestorPayoutItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PayoutId      int             `gorm:"index;not null" json:"payout_id"`
	VehicleId     int             `gorm:"index;not null" json:"vehicle_id"`
	Revenue       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"revenue"`
	BookingsCount int             `gorm:"default:0" json:"bookings_count"`
}

// CanTransition reports whether the payout may move to the target status.
// Allowed: DRAFT -> PENDING -> PAID; any non-terminal status -> CANCELLED.
func (p *InvestorPayout) CanTransition(target PayoutStatus) bool {
	switch p.CurrentStatus {
	case PayoutStatusDraft:
		return target == PayoutStatusPending || target == PayoutStatusCancelled
	case PayoutStatusPending:
		return target == PayoutStatusPaid || target == PayoutStatusCancelled
	default:
		return false
	}
}

func GetInvestorPayout(ctx context.Context, id int) (*InvestorPayout, error) {
	db := config.GetDB()
	var payout InvestorPayout
	if err := db.WithContext(ctx).Preload("Items").First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: investor payout %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &payout, nil
}
