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

type RentalInvoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	InvoiceNumber string          `gorm:"size:255;not null" json:"invoice_number"`
	BookingId     int             `gorm:"index" json:"booking_id"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	BranchId      int             `gorm:"index;not null" json:"branch_id" binding:"required"`
	InvoiceDate   time.Time       `gorm:"not null;index" json:"invoice_date" binding:"required"`
	DueDate       time.Time       `gorm:"not null" json:"due_date" binding:"required"`
	CurrentStatus InvoiceStatus   `gorm:"type:enum('Draft','Confirmed','Partial Paid','Paid','Void');default:'Draft'" json:"current_status"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (inv *RentalInvoice) RemainingBalance() decimal.Decimal {
	return inv.Total.Sub(inv.PaidAmount)
}

// ApplyPayment records a payment against the invoice and moves its status.
func (inv *RentalInvoice) ApplyPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("payment amount must be positive")
	}
	if amount.GreaterThan(inv.RemainingBalance()) {
		return errors.New("payment amount must be less than or equal to remaining balance of invoice")
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	if inv.RemainingBalance().IsZero() {
		inv.CurrentStatus = InvoiceStatusPaid
	} else {
		inv.CurrentStatus = InvoiceStatusPartialPaid
	}
	return nil
}

func GetRentalInvoice(ctx context.Context, id int) (*RentalInvoice, error) {
	db := config.GetDB()
	var invoice RentalInvoice
	if err := db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &invoice, nil
}

type InvoicePayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id" binding:"required"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date" binding:"required"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaymentMode string          `gorm:"size:100" json:"payment_mode"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
