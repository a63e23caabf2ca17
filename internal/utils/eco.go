package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Eco incentive constants
const (
	CO2KgPerKm            = 0.121
	GreenPointsPerKgCO2   = 10
	DefaultRideDistanceKm = 10.0

	MinRating = 1.0
	MaxRating = 5.0

	// One eco credit is worth half a currency unit.
	EcoCreditValue = 0.5
	// Wallet payments get a tenth of the earned green points back as balance.
	WalletRebatePerPoint = 0.1

	GreenWalletStartingBalance = 100.0
	EcoCreditsStartingBalance  = 50

	// Upper bounds on client-supplied quantities. They keep every derived
	// point and credit count well inside int32.
	MaxPaymentAmount  = 1_000_000.0
	MaxRideDistanceKm = 5_000.0
	MaxCO2SavedKg     = 1_000.0

	// MaxGreenPoints and MaxEcoCredits saturate the conversions below.
	MaxGreenPoints = math.MaxInt32
	MaxEcoCredits  = math.MaxInt32
)

// CarbonOffsetKg is the CO2 saved by sharing a ride of the given length.
func CarbonOffsetKg(distanceKm float64) float64 {
	return distanceKm * CO2KgPerKm
}

// GreenPoints converts saved CO2 into points, rounding to the nearest
// integer. Every accrual path (completion, payment, bonus) goes through here.
// The result is clamped to [0, MaxGreenPoints]; NaN counts as zero.
func GreenPoints(co2Kg float64) int {
	points := math.Round(co2Kg * GreenPointsPerKgCO2)
	switch {
	case math.IsNaN(points) || points <= 0:
		return 0
	case points >= MaxGreenPoints:
		return MaxGreenPoints
	}
	return int(points)
}

// GreenPointsForDistance is GreenPoints(CarbonOffsetKg(distanceKm)).
func GreenPointsForDistance(distanceKm float64) int {
	return GreenPoints(CarbonOffsetKg(distanceKm))
}

// IsValidRating reports whether r is a rating that may enter a running mean.
func IsValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}

// RunningMean folds rating into the mean of count previous ratings. Ratings
// outside [1,5] (including zero, which means "not rated") leave both values
// untouched.
func RunningMean(mean float64, count int, rating float64) (float64, int) {
	if !IsValidRating(rating) {
		return mean, count
	}
	return (mean*float64(count) + rating) / float64(count+1), count + 1
}

// EcoCreditsNeeded is the number of whole credits required to cover amount.
// Amounts needing more than MaxEcoCredits saturate there, which no balance
// can cover.
func EcoCreditsNeeded(amount float64) int {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return MaxEcoCredits
	}
	needed := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(EcoCreditValue)).
		Ceil()
	switch {
	case needed.Sign() <= 0:
		return 0
	case needed.GreaterThanOrEqual(decimal.NewFromInt(MaxEcoCredits)):
		return MaxEcoCredits
	}
	return int(needed.IntPart())
}

// WalletRebate is the balance credited back for greenPoints on a wallet payment.
func WalletRebate(greenPoints int) float64 {
	return decimal.NewFromInt(int64(greenPoints)).
		Mul(decimal.NewFromFloat(WalletRebatePerPoint)).
		InexactFloat64()
}

// WalletBalanceDelta is the net change to a green wallet after paying amount
// and receiving the rebate for greenPoints.
func WalletBalanceDelta(amount float64, greenPoints int) float64 {
	return decimal.NewFromFloat(WalletRebate(greenPoints)).
		Sub(decimal.NewFromFloat(amount)).
		InexactFloat64()
}

// HasSufficientBalance compares money values without float drift.
func HasSufficientBalance(balance, amount float64) bool {
	return decimal.NewFromFloat(balance).GreaterThanOrEqual(decimal.NewFromFloat(amount))
}
