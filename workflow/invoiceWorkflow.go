package workflow

import (
	"context"
	"errors"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/models/reports"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice and payment writes touch every revenue-derived family: AR balances
// directly, and invoices are raised from bookings, so revenue, P&L,
// utilization and payouts may all be stale afterwards.
func invalidateReceivableReports(funcName string) {
	err := reportCache().Invalidate(
		reports.FamilyReceivables,
		reports.FamilyRevenue,
		reports.FamilyPnl,
		reports.FamilyUtilization,
		reports.FamilyInvestors,
	)
	if err != nil {
		config.LogError(config.GetLogger(), "invoiceWorkflow", funcName, "invalidate report cache", nil, err)
	}
}

func CreateRentalInvoice(ctx context.Context, invoice *models.RentalInvoice) (*models.RentalInvoice, error) {
	if invoice.Total.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("invoice total must be positive")
	}
	if invoice.DueDate.Before(invoice.InvoiceDate) {
		return nil, utils.ErrInvalidDateRange
	}
	if _, err := models.GetBranch(ctx, invoice.BranchId); err != nil {
		return nil, err
	}

	invoice.PaidAmount = decimal.Zero
	if invoice.CurrentStatus == "" {
		invoice.CurrentStatus = models.InvoiceStatusConfirmed
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(invoice).Error; err != nil {
		config.LogError(config.GetLogger(), "invoiceWorkflow", "CreateRentalInvoice", "insert invoice", invoice, err)
		return nil, err
	}

	invalidateReceivableReports("CreateRentalInvoice")
	publishAuditFact(ctx, invoice.ID, "rental_invoice", "create", nil, invoice)
	return invoice, nil
}

// RecordInvoicePayment applies a payment to its invoice and persists both in
// one transaction. The invoice status moves to Paid or Partial Paid.
func RecordInvoicePayment(ctx context.Context, payment *models.InvoicePayment) (*models.RentalInvoice, error) {
	invoice, err := models.GetRentalInvoice(ctx, payment.InvoiceId)
	if err != nil {
		return nil, err
	}
	old := *invoice

	if err := invoice.ApplyPayment(payment.Amount); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return tx.Save(invoice).Error
	})
	if err != nil {
		config.LogError(config.GetLogger(), "invoiceWorkflow", "RecordInvoicePayment", "apply payment", payment, err)
		return nil, err
	}

	invalidateReceivableReports("RecordInvoicePayment")
	publishAuditFact(ctx, invoice.ID, "rental_invoice", "payment", old, invoice)
	return invoice, nil
}
