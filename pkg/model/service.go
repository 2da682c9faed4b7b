package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockType string

const (
	StockPhysical  StockType = "Physical"
	StockUnlimited StockType = "Unlimited"
)

type ServiceStatus string

const (
	ServiceActive   ServiceStatus = "Active"
	ServiceInactive ServiceStatus = "Inactive"
)

type Service struct {
	Name       string    `json:"name" bson:"name"`
	Unit       string    `json:"unit" bson:"unit"`
	RentalType string    `json:"rental_type" bson:"rental_type"`
	StockType  StockType `json:"stock_type" bson:"stock_type"`
}

// BranchService prices a Service at one branch and tracks its stock there.
type BranchService struct {
	ID                string          `json:"id,omitempty" bson:"_id,omitempty"`
	BranchID          string          `json:"branch_id" bson:"branch_id"`
	Service           Service         `json:"service" bson:"service"`
	UnitPrice         decimal.Decimal `json:"unit_price" bson:"unit_price"`
	CurrentStock      int             `json:"current_stock" bson:"current_stock"`
	MinStockThreshold int             `json:"min_stock_threshold" bson:"min_stock_threshold"`
	Status            ServiceStatus   `json:"status" bson:"status"`
	UpdatedAt         time.Time       `json:"updated_at" bson:"updated_at"`
}

func (s *BranchService) TracksStock() bool {
	return s.Service.StockType == StockPhysical || s.Service.StockType == ""
}

type ServiceBookingItem struct {
	BranchServiceID string          `json:"branch_service_id" bson:"branch_service_id"`
	ServiceName     string          `json:"service_name" bson:"service_name"`
	Quantity        int             `json:"quantity" bson:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price" bson:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total" bson:"line_total"`
}

type StockWarning struct {
	BranchServiceID   string `json:"branch_service_id"`
	ServiceName       string `json:"service_name"`
	CurrentStock      int    `json:"current_stock"`
	MinStockThreshold int    `json:"min_stock_threshold"`
}

type ServiceBooking struct {
	ID             string               `json:"id,omitempty" bson:"_id,omitempty"`
	CourtBookingID string               `json:"court_booking_id" bson:"court_booking_id"`
	BranchID       string               `json:"branch_id" bson:"branch_id"`
	EmployeeID     string               `json:"employee_id,omitempty" bson:"employee_id,omitempty"`
	Items          []ServiceBookingItem `json:"items" bson:"items"`
	Total          decimal.Decimal      `json:"total" bson:"total"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	Warnings       []StockWarning       `json:"warnings,omitempty" bson:"-"`
}

type AttachItem struct {
	BranchServiceID string `json:"branch_service_id" validate:"required,mongodb"`
	Quantity        int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type AttachServicesRequest struct {
	CourtBookingID string       `json:"court_booking_id" validate:"required,mongodb"`
	EmployeeID     string       `json:"employee_id,omitempty" validate:"omitempty,mongodb"`
	Items          []AttachItem `json:"items" validate:"required,min=1,max=50,dive"`
}
