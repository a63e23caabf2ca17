package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethodType string
type PaymentMethodState string

const (
	PaymentMethodCreditCard  PaymentMethodType = "credit_card"
	PaymentMethodDebitCard   PaymentMethodType = "debit_card"
	PaymentMethodPayPal      PaymentMethodType = "paypal"
	PaymentMethodUPI         PaymentMethodType = "upi"
	PaymentMethodGreenWallet PaymentMethodType = "green_wallet"
	PaymentMethodEcoCredits  PaymentMethodType = "eco_credits"

	// A method is in exactly one state. Default implies active, and a user
	// has at most one default method (partial unique index on user_id).
	PaymentMethodStateDefault  PaymentMethodState = "default"
	PaymentMethodStateActive   PaymentMethodState = "active"
	PaymentMethodStateInactive PaymentMethodState = "inactive"
)

func (t PaymentMethodType) IsValid() bool {
	switch t {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPayPal, PaymentMethodUPI,
		PaymentMethodGreenWallet, PaymentMethodEcoCredits:
		return true
	}
	return false
}

func (t PaymentMethodType) IsCard() bool {
	return t == PaymentMethodCreditCard || t == PaymentMethodDebitCard
}

// HasBalance reports whether the method carries an internal balance that
// payments debit.
func (t PaymentMethodType) HasBalance() bool {
	return t == PaymentMethodGreenWallet || t == PaymentMethodEcoCredits
}

type CardDetails struct {
	Last4       string `json:"last4" bson:"last4"`
	HolderName  string `json:"holder_name" bson:"holder_name"`
	ExpiryMonth int    `json:"expiry_month" bson:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year" bson:"expiry_year"`
}

type PaymentMethod struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	Type        PaymentMethodType  `json:"type" bson:"type"`
	State       PaymentMethodState `json:"-" bson:"state"`
	Card        *CardDetails       `json:"card,omitempty" bson:"card,omitempty"`
	PayPalEmail string             `json:"paypal_email,omitempty" bson:"paypal_email,omitempty"`
	UPIID       string             `json:"upi_id,omitempty" bson:"upi_id,omitempty"`
	Balance     float64            `json:"balance" bson:"balance"`
	Credits     int                `json:"credits" bson:"credits"`
	Nickname    string             `json:"nickname,omitempty" bson:"nickname,omitempty"`
	LastUsedAt  *time.Time         `json:"last_used_at,omitempty" bson:"last_used_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

func (p PaymentMethod) IsDefault() bool {
	return p.State == PaymentMethodStateDefault
}

func (p PaymentMethod) IsActive() bool {
	return p.State == PaymentMethodStateDefault || p.State == PaymentMethodStateActive
}

// MarshalJSON exposes the state as the is_default / is_active pair clients
// expect.
func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	type alias PaymentMethod
	return json.Marshal(struct {
		alias
		IsDefault bool `json:"is_default"`
		IsActive  bool `json:"is_active"`
	}{
		alias:     alias(p),
		IsDefault: p.IsDefault(),
		IsActive:  p.IsActive(),
	})
}
