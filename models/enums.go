package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "Reserved"
	BookingStatusActive    BookingStatus = "Active"
	BookingStatusCompleted BookingStatus = "Completed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft       InvoiceStatus = "Draft"
	InvoiceStatusConfirmed   InvoiceStatus = "Confirmed"
	InvoiceStatusPartialPaid InvoiceStatus = "Partial Paid"
	InvoiceStatusPaid        InvoiceStatus = "Paid"
	InvoiceStatusVoid        InvoiceStatus = "Void"
)

type PayoutStatus string

const (
	PayoutStatusDraft     PayoutStatus = "DRAFT"
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusPaid      PayoutStatus = "PAID"
	PayoutStatusCancelled PayoutStatus = "CANCELLED"
)

type ExpenseCategoryType string

const (
	ExpenseCategoryTypeCOGS ExpenseCategoryType = "COGS"
	ExpenseCategoryTypeOPEX ExpenseCategoryType = "OPEX"
)

type MaintenanceType string

const (
	MaintenanceTypeEngine  MaintenanceType = "Engine"
	MaintenanceTypeTires   MaintenanceType = "Tires"
	MaintenanceTypeBody    MaintenanceType = "Body"
	MaintenanceTypeService MaintenanceType = "Service"
)

type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "Individual"
	CustomerTypeCorporate  CustomerType = "Corporate"
)

// DateString is a calendar date (no time component). All report filters and
// period fields use it; the wire format is ISO "2006-01-02".
type DateString time.Time

const dateLayout = "2006-01-02"

func ParseDateString(s string) (DateString, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateString{}, errors.New("error parsing date, want YYYY-MM-DD")
	}
	return DateString(t), nil
}

func NewDateString(t time.Time) DateString {
	return DateString(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

func (t DateString) Time() time.Time {
	lt := time.Time(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

func (t DateString) String() string {
	return time.Time(t).Format(dateLayout)
}

func (t DateString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *DateString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("DateString must be a JSON string")
	}
	parsed, err := ParseDateString(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (t DateString) Value() (driver.Value, error) {
	return t.Time(), nil
}

// Scan implements the sql.Scanner interface
func (t *DateString) Scan(value interface{}) error {
	if value == nil {
		*t = DateString(time.Time{})
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*t = DateString(v)
	default:
		return fmt.Errorf("cannot convert %T to DateString", value)
	}
	return nil
}
