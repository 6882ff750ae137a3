package workflow

import (
	"context"
	"fmt"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/models/reports"
	"github.com/fleetfocus/rentals_backend/utils"
)

type NewInvestorPayout struct {
	InvestorId    int                 `json:"investor_id" binding:"required"`
	PeriodFrom    models.DateString   `json:"period_from" binding:"required"`
	PeriodTo      models.DateString   `json:"period_to" binding:"required"`
	BranchId      *int                `json:"branch_id"`
	InitialStatus models.PayoutStatus `json:"initial_status" binding:"omitempty,payoutinitialstatus"`
}

func invalidatePayoutReports(funcName string) {
	if err := reportCache().Invalidate(reports.FamilyInvestors); err != nil {
		config.LogError(config.GetLogger(), "payoutWorkflow", funcName, "invalidate report cache", nil, err)
	}
}

// CreateInvestorPayout runs the payout calculator and persists its preview
// verbatim. A zero-revenue payout is allowed; approving it is a business
// decision made later in the lifecycle.
func CreateInvestorPayout(ctx context.Context, input NewInvestorPayout) (*models.InvestorPayout, error) {
	status := input.InitialStatus
	if status == "" {
		status = models.PayoutStatusDraft
	}
	if status != models.PayoutStatusDraft && status != models.PayoutStatusPending {
		return nil, fmt.Errorf("%w: payout must start as DRAFT or PENDING", utils.ErrInvalidStatusTransition)
	}

	preview, err := reports.GetInvestorPayoutPreview(ctx, input.InvestorId, input.PeriodFrom.Time(), input.PeriodTo.Time(), input.BranchId)
	if err != nil {
		return nil, err
	}

	payout := models.InvestorPayout{
		InvestorId:        preview.InvestorId,
		BranchId:          utils.DereferencePtr(input.BranchId, 0),
		PeriodFrom:        input.PeriodFrom.Time(),
		PeriodTo:          input.PeriodTo.Time(),
		TotalRevenue:      preview.TotalRevenue,
		CommissionPercent: preview.CommissionPercent,
		CommissionAmount:  preview.CommissionAmount,
		NetPayout:         preview.NetPayout,
		CurrentStatus:     status,
	}
	for _, contribution := range preview.Breakdown {
		payout.Items = append(payout.Items, models.InvestorPayoutItem{
			VehicleId:     contribution.VehicleId,
			Revenue:       contribution.Revenue,
			BookingsCount: contribution.BookingsCount,
		})
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&payout).Error; err != nil {
		config.LogError(config.GetLogger(), "payoutWorkflow", "CreateInvestorPayout", "insert payout", input, err)
		return nil, err
	}

	invalidatePayoutReports("CreateInvestorPayout")
	publishAuditFact(ctx, payout.ID, "investor_payout", "create", nil, payout)
	return &payout, nil
}

// ChangeInvestorPayoutStatus moves a payout through its lifecycle:
// DRAFT -> PENDING -> PAID, any non-terminal status -> CANCELLED.
func ChangeInvestorPayoutStatus(ctx context.Context, id int, target models.PayoutStatus) (*models.InvestorPayout, error) {
	switch target {
	case models.PayoutStatusPending, models.PayoutStatusPaid, models.PayoutStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", utils.ErrInvalidStatusTransition, target)
	}

	payout, err := models.GetInvestorPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payout.CanTransition(target) {
		return nil, fmt.Errorf("%w: %s -> %s", utils.ErrInvalidStatusTransition, payout.CurrentStatus, target)
	}
	old := *payout

	payout.CurrentStatus = target
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(payout).Update("current_status", target).Error; err != nil {
		config.LogError(config.GetLogger(), "payoutWorkflow", "ChangeInvestorPayoutStatus", "update status", id, err)
		return nil, err
	}

	invalidatePayoutReports("ChangeInvestorPayoutStatus")
	publishAuditFact(ctx, payout.ID, "investor_payout", "status_"+string(target), old, payout)
	return payout, nil
}
