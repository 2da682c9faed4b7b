package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceType string

const (
	InvoiceCourtCancel     InvoiceType = "CourtCancel"
	InvoiceCourtCompletion InvoiceType = "CourtCompletion"
	InvoiceCourtNoShow     InvoiceType = "CourtNoShow"
)

const (
	DefaultPaymentMethod = "Bank transfer"
	DefaultCancelReason  = "Customer cancelled the booking"
)

const (
	LineCourt     = "court"
	LineService   = "service"
	LineRefund    = "refund"
	LineCancelFee = "cancellation_fee"
	LineNoShowFee = "no_show_fee"
)

type InvoiceLine struct {
	Kind        string          `json:"kind" bson:"kind"`
	Description string          `json:"description" bson:"description"`
	Amount      decimal.Decimal `json:"amount" bson:"amount"`
}

type Invoice struct {
	ID               string          `json:"id,omitempty" bson:"_id,omitempty"`
	CourtBookingID   string          `json:"court_booking_id,omitempty" bson:"court_booking_id,omitempty"`
	ServiceBookingID string          `json:"service_booking_id,omitempty" bson:"service_booking_id,omitempty"`
	BranchID         string          `json:"branch_id" bson:"branch_id"`
	EmployeeID       string          `json:"employee_id,omitempty" bson:"employee_id,omitempty"`
	Type             InvoiceType     `json:"type" bson:"type"`
	Lines            []InvoiceLine   `json:"lines" bson:"lines"`
	Total            decimal.Decimal `json:"total" bson:"total"`
	Fee              decimal.Decimal `json:"fee" bson:"fee"`
	Refundable       decimal.Decimal `json:"refundable" bson:"refundable"`
	Method           string          `json:"method" bson:"method"`
	Reason           string          `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at" bson:"created_at"`
}
