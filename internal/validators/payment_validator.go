package validators

import (
	"strings"

	"greenride/internal/models"
)

type AddPaymentMethodRequest struct {
	Type        models.PaymentMethodType `json:"type" validate:"required"`
	CardNumber  string                   `json:"card_number,omitempty"`
	HolderName  string                   `json:"holder_name,omitempty" validate:"omitempty,max=100"`
	ExpiryMonth int                      `json:"expiry_month,omitempty"`
	ExpiryYear  int                      `json:"expiry_year,omitempty"`
	PayPalEmail string                   `json:"paypal_email,omitempty" validate:"omitempty,email"`
	UPIID       string                   `json:"upi_id,omitempty" validate:"omitempty,max=100"`
	Nickname    string                   `json:"nickname,omitempty" validate:"omitempty,max=50"`
	IsDefault   bool                     `json:"is_default,omitempty"`
}

type ProcessPaymentRequest struct {
	RideID          string  `json:"ride_id" validate:"required,object_id"`
	PaymentMethodID string  `json:"payment_method_id" validate:"required,object_id"`
	Amount          float64 `json:"amount" validate:"required,gt=0,lte=1000000"`
}

type EcoBonusRequest struct {
	RideID      string  `json:"ride_id" validate:"required,object_id"`
	BonusAmount float64 `json:"bonus_amount" validate:"min=0,max=1000000"`
	CO2SavedKg  float64 `json:"co2_saved" validate:"required,gt=0,lte=1000"`
}

// ValidateAddPaymentMethod checks the fields each method type requires.
func ValidateAddPaymentMethod(req *AddPaymentMethodRequest) ValidationErrors {
	errs := ValidateStruct(req)
	if len(errs) > 0 {
		return errs
	}

	missing := func(field string) {
		errs = append(errs, ValidationError{
			Field:   field,
			Tag:     "required",
			Message: field + " is required for " + string(req.Type),
		})
	}

	switch {
	case req.Type.IsCard():
		digits, ok := CardDigits(req.CardNumber)
		if !ok || len(digits) < 12 || len(digits) > 19 {
			errs = append(errs, ValidationError{Field: "card_number", Tag: "card", Message: "Invalid card number"})
		}
		if strings.TrimSpace(req.HolderName) == "" {
			missing("holder_name")
		}
		if req.ExpiryMonth < 1 || req.ExpiryMonth > 12 {
			errs = append(errs, ValidationError{Field: "expiry_month", Tag: "month", Message: "expiry_month must be between 1 and 12"})
		}
		if req.ExpiryYear <= 0 {
			missing("expiry_year")
		}
	case req.Type == models.PaymentMethodPayPal:
		if req.PayPalEmail == "" {
			missing("paypal_email")
		}
	case req.Type == models.PaymentMethodUPI:
		if strings.TrimSpace(req.UPIID) == "" {
			missing("upi_id")
		}
	case req.Type.HasBalance():
	default:
		errs = append(errs, ValidationError{
			Field:   "type",
			Tag:     "oneof",
			Value:   string(req.Type),
			Message: "Invalid payment method type",
		})
	}

	return errs
}

// CardDigits drops spaces and dashes from a card number. ok is false if
// anything else but digits remains.
func CardDigits(number string) (digits string, ok bool) {
	ok = true
	digits = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-':
			return -1
		}
		ok = false
		return -1
	}, number)
	return digits, ok
}
