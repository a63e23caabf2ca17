package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string
type TransactionStatus string

const (
	TransactionTypeRidePayment  TransactionType = "ride_payment"
	TransactionTypeGreenReward  TransactionType = "green_reward"
	TransactionTypeEcoBonus     TransactionType = "eco_bonus"
	TransactionTypeCarbonOffset TransactionType = "carbon_offset"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction is an immutable ledger entry. TransactionID is unique, and
// BonusKey ("<user>:<ride>") is unique among eco bonuses.
type Transaction struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TransactionID     string              `json:"transaction_id" bson:"transaction_id"`
	UserID            primitive.ObjectID  `json:"user_id" bson:"user_id"`
	RideID            *primitive.ObjectID `json:"ride_id,omitempty" bson:"ride_id,omitempty"`
	PaymentMethodID   primitive.ObjectID  `json:"payment_method_id" bson:"payment_method_id"`
	Type              TransactionType     `json:"type" bson:"type"`
	Status            TransactionStatus   `json:"status" bson:"status"`
	Amount            float64             `json:"amount" bson:"amount"`
	Currency          string              `json:"currency" bson:"currency"`
	GreenPointsEarned int                 `json:"green_points_earned" bson:"green_points_earned"`
	CarbonOffsetKg    float64             `json:"carbon_offset_kg" bson:"carbon_offset_kg"`
	DistanceKm        float64             `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
	BonusKey          string              `json:"-" bson:"bonus_key,omitempty"`
	Description       string              `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
}

// PaymentMethodSummary is the slice of a payment method joined onto a
// transaction in history listings.
type PaymentMethodSummary struct {
	ID   primitive.ObjectID `json:"id" bson:"_id"`
	Type PaymentMethodType  `json:"type" bson:"type"`
	Card *CardDetails       `json:"card,omitempty" bson:"card,omitempty"`
}

type TransactionWithMethod struct {
	Transaction   `bson:",inline"`
	PaymentMethod *PaymentMethodSummary `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
}
