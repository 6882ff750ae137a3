package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRentalInvoice_ApplyPayment(t *testing.T) {
	inv := RentalInvoice{Total: amt("1000"), CurrentStatus: InvoiceStatusConfirmed}

	if err := inv.ApplyPayment(amt("400")); err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if inv.CurrentStatus != InvoiceStatusPartialPaid {
		t.Fatalf("status after partial payment = %s, want %s", inv.CurrentStatus, InvoiceStatusPartialPaid)
	}
	if !inv.RemainingBalance().Equal(amt("600")) {
		t.Fatalf("remaining balance = %s, want 600", inv.RemainingBalance())
	}

	if err := inv.ApplyPayment(amt("600")); err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if inv.CurrentStatus != InvoiceStatusPaid {
		t.Fatalf("status after full payment = %s, want %s", inv.CurrentStatus, InvoiceStatusPaid)
	}
	if !inv.RemainingBalance().IsZero() {
		t.Fatalf("remaining balance = %s, want 0", inv.RemainingBalance())
	}
}

func TestRentalInvoice_ApplyPaymentRejectsInvalidAmounts(t *testing.T) {
	inv := RentalInvoice{Total: amt("500"), CurrentStatus: InvoiceStatusConfirmed}

	if err := inv.ApplyPayment(amt("0")); err == nil {
		t.Fatal("expected error for zero payment")
	}
	if err := inv.ApplyPayment(amt("-10")); err == nil {
		t.Fatal("expected error for negative payment")
	}
	if err := inv.ApplyPayment(amt("500.01")); err == nil {
		t.Fatal("expected error for overpayment")
	}
	if inv.CurrentStatus != InvoiceStatusConfirmed || !inv.PaidAmount.IsZero() {
		t.Fatalf("rejected payments must not mutate the invoice: %+v", inv)
	}
}
