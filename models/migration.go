package models

import "github.com/fleetfocus/rentals_backend/config"

// MigrateAll runs gorm auto-migration for every persisted entity. Called once
// at startup after the DB connection is established.
func MigrateAll() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Branch{},
		&Vehicle{},
		&Investor{},
		&Booking{},
		&RentalInvoice{},
		&InvoicePayment{},
		&ExpenseCategory{},
		&Expense{},
		&InvestorPayout{},
		&InvestorPayoutItem{},
	)
}
