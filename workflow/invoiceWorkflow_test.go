package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCreateRentalInvoice_RejectsNonPositiveTotal(t *testing.T) {
	invoice := &models.RentalInvoice{
		CustomerId:  1,
		BranchId:    1,
		InvoiceDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Total:       decimal.Zero,
	}
	if _, err := CreateRentalInvoice(context.Background(), invoice); err == nil {
		t.Fatal("expected error for zero total, got nil")
	}
}

func TestCreateRentalInvoice_RejectsDueDateBeforeInvoiceDate(t *testing.T) {
	invoice := &models.RentalInvoice{
		CustomerId:  1,
		BranchId:    1,
		InvoiceDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Total:       decimal.NewFromInt(900),
	}
	_, err := CreateRentalInvoice(context.Background(), invoice)
	if !errors.Is(err, utils.ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}
