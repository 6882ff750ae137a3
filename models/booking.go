package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a rental agreement for one vehicle. Revenue reporting derives
// RevenueRecords from bookings at report time; bookings themselves are owned
// by the reservation subsystem and never mutated here.
type Booking struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BookingNumber  string          `gorm:"size:255;not null" json:"booking_number"`
	VehicleId      int             `gorm:"index;not null" json:"vehicle_id" binding:"required"`
	BranchId       int             `gorm:"index;not null" json:"branch_id" binding:"required"`
	CustomerId     int             `gorm:"index" json:"customer_id"`
	CustomerType   CustomerType    `gorm:"type:enum('Individual','Corporate');default:'Individual'" json:"customer_type"`
	StartDate      time.Time       `gorm:"not null;index" json:"start_date" binding:"required"`
	EndDate        time.Time       `gorm:"not null" json:"end_date" binding:"required"`
	CurrentStatus  BookingStatus   `gorm:"type:enum('Reserved','Active','Completed','Cancelled');default:'Reserved'" json:"current_status"`
	GrossAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
