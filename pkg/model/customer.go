package model

import "github.com/shopspring/decimal"

type CustomerLevel struct {
	Name         string          `json:"name" bson:"name"`
	DiscountRate decimal.Decimal `json:"discount_rate" bson:"discount_rate"`
}

type Customer struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty"`
	AccountID   string        `json:"account_id,omitempty" bson:"account_id,omitempty"`
	FullName    string        `json:"full_name" bson:"full_name"`
	Phone       string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Email       string        `json:"email,omitempty" bson:"email,omitempty"`
	BonusPoints int64         `json:"bonus_points" bson:"bonus_point"`
	Level       CustomerLevel `json:"level" bson:"level"`
}

type CustomerRefKind string

const (
	ByCustomerID CustomerRefKind = "customer"
	ByAccountID  CustomerRefKind = "account"
)

// CustomerRef identifies a customer either directly or through the account
// that owns it. Callers pick the kind explicitly.
type CustomerRef struct {
	Kind CustomerRefKind `json:"kind" validate:"required,oneof=customer account"`
	ID   string          `json:"id" validate:"required,min=1,max=64"`
}

func CustomerByID(id string) CustomerRef {
	return CustomerRef{Kind: ByCustomerID, ID: id}
}

func CustomerByAccount(accountID string) CustomerRef {
	return CustomerRef{Kind: ByAccountID, ID: accountID}
}
