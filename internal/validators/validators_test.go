package validators

import (
	"testing"
	"time"

	"greenride/internal/models"
	"greenride/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func floatPtr(f float64) *float64 { return &f }

func TestValidateCreateRide(t *testing.T) {
	valid := CreateRideRequest{
		Origin:         "Indiranagar",
		Destination:    "Electronic City",
		DepartureTime:  time.Now().Add(time.Hour),
		SeatsAvailable: 3,
		VehicleType:    "electric",
	}
	assert.Empty(t, ValidateCreateRide(&valid))

	t.Run("zero seats", func(t *testing.T) {
		req := valid
		req.SeatsAvailable = 0
		errs := ValidateCreateRide(&req)
		require.Len(t, errs, 1)
		assert.Equal(t, "seats_available", errs[0].Field)
	})

	t.Run("negative seats", func(t *testing.T) {
		req := valid
		req.SeatsAvailable = -2
		assert.NotEmpty(t, ValidateCreateRide(&req))
	})

	t.Run("too many seats", func(t *testing.T) {
		req := valid
		req.SeatsAvailable = utils.MaxSeatsPerRide + 1
		assert.NotEmpty(t, ValidateCreateRide(&req))
	})

	t.Run("blank origin", func(t *testing.T) {
		req := valid
		req.Origin = "   "
		errs := ValidateCreateRide(&req)
		require.NotEmpty(t, errs)
		assert.Contains(t, errs.ToMap(), "origin")
	})

	t.Run("missing departure", func(t *testing.T) {
		req := valid
		req.DepartureTime = time.Time{}
		assert.Contains(t, ValidateCreateRide(&req).ToMap(), "departure_time")
	})
}

func TestValidateCompleteRide(t *testing.T) {
	rider, driver := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()
	valid := CompleteRideRequest{
		RideID:       primitive.NewObjectID().Hex(),
		RiderID:      rider,
		DriverID:     driver,
		DistanceKm:   10,
		DriverRating: floatPtr(5),
	}
	assert.Empty(t, ValidateCompleteRide(&valid))

	t.Run("zero rating means unrated", func(t *testing.T) {
		req := valid
		req.RiderRating = floatPtr(0)
		assert.Empty(t, ValidateCompleteRide(&req))
	})

	t.Run("rating out of range", func(t *testing.T) {
		req := valid
		req.RiderRating = floatPtr(6)
		assert.Contains(t, ValidateCompleteRide(&req).ToMap(), "rider_rating")
	})

	t.Run("non-positive distance", func(t *testing.T) {
		req := valid
		req.DistanceKm = -1
		assert.Contains(t, ValidateCompleteRide(&req).ToMap(), "distance_km")
	})

	t.Run("distance above limit", func(t *testing.T) {
		req := valid
		req.DistanceKm = 1e300
		assert.Equal(t, "distance_km must be at most 5000", ValidateCompleteRide(&req).ToMap()["distance_km"])

		req.DistanceKm = utils.MaxRideDistanceKm
		assert.Empty(t, ValidateCompleteRide(&req))
	})

	t.Run("same rider and driver", func(t *testing.T) {
		req := valid
		req.DriverID = rider
		assert.Contains(t, ValidateCompleteRide(&req).ToMap(), "rider_id")
	})

	t.Run("bad object id", func(t *testing.T) {
		req := valid
		req.RideID = "not-an-id"
		assert.Equal(t, "Invalid ID format", ValidateCompleteRide(&req).ToMap()["ride_id"])
	})
}

func TestValidateAddPaymentMethod(t *testing.T) {
	cases := []struct {
		name    string
		req     AddPaymentMethodRequest
		invalid []string
	}{
		{
			name: "complete card",
			req: AddPaymentMethodRequest{
				Type: models.PaymentMethodCreditCard, CardNumber: "4242 4242 4242 4242",
				HolderName: "Asha Rao", ExpiryMonth: 8, ExpiryYear: 2029,
			},
		},
		{
			name:    "card without holder and month",
			req:     AddPaymentMethodRequest{Type: models.PaymentMethodDebitCard, CardNumber: "4242424242424242", ExpiryMonth: 13, ExpiryYear: 2029},
			invalid: []string{"holder_name", "expiry_month"},
		},
		{
			name:    "card number with letters",
			req:     AddPaymentMethodRequest{Type: models.PaymentMethodCreditCard, CardNumber: "4242abcd42424242", HolderName: "A", ExpiryMonth: 1, ExpiryYear: 2030},
			invalid: []string{"card_number"},
		},
		{
			name:    "paypal without email",
			req:     AddPaymentMethodRequest{Type: models.PaymentMethodPayPal},
			invalid: []string{"paypal_email"},
		},
		{
			name: "paypal",
			req:  AddPaymentMethodRequest{Type: models.PaymentMethodPayPal, PayPalEmail: "asha@example.com"},
		},
		{
			name:    "upi without id",
			req:     AddPaymentMethodRequest{Type: models.PaymentMethodUPI},
			invalid: []string{"upi_id"},
		},
		{
			name: "wallet needs nothing",
			req:  AddPaymentMethodRequest{Type: models.PaymentMethodGreenWallet},
		},
		{
			name:    "unknown type",
			req:     AddPaymentMethodRequest{Type: "bitcoin"},
			invalid: []string{"type"},
		},
		{
			name:    "missing type",
			req:     AddPaymentMethodRequest{},
			invalid: []string{"type"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateAddPaymentMethod(&tc.req)
			if len(tc.invalid) == 0 {
				assert.Empty(t, errs)
				return
			}
			fields := errs.ToMap()
			for _, f := range tc.invalid {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidateIncidentReport(t *testing.T) {
	req := IncidentReportRequest{
		Type:        models.IncidentRecklessDriving,
		Severity:    models.SeverityHigh,
		Description: "Driver ran two red lights",
	}
	assert.Empty(t, ValidateIncidentReport(&req))

	req.Type = "speeding"
	req.Severity = "critical"
	fields := ValidateIncidentReport(&req).ToMap()
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "severity")
}

func TestCustomTags(t *testing.T) {
	contact := EmergencyContactRequest{Name: "Ravi", Phone: "+91 98450 12345", Relationship: "brother"}
	assert.Empty(t, ValidateStruct(&contact))

	contact.Phone = "call me"
	assert.Contains(t, ValidateStruct(&contact).ToMap(), "phone")

	assert.True(t, IsValidObjectID(primitive.NewObjectID().Hex()))
	assert.False(t, IsValidObjectID("xyz"))
	assert.Equal(t, "hello", SanitizeInput("  <b>hello</b> "))
}

func TestValidationErrorsAsError(t *testing.T) {
	assert.NoError(t, ValidationErrors(nil).AsError())

	err := ValidationErrors{{Field: "origin", Message: "origin is required"}}.AsError()
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, "origin: origin is required", err.Error())
}

func TestPaymentQuantityLimits(t *testing.T) {
	rideID, methodID := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()

	payment := ProcessPaymentRequest{RideID: rideID, PaymentMethodID: methodID, Amount: utils.MaxPaymentAmount}
	assert.Empty(t, ValidateStruct(&payment))
	for _, amount := range []float64{1e20, utils.MaxPaymentAmount + 0.01} {
		payment.Amount = amount
		assert.Contains(t, ValidateStruct(&payment).ToMap(), "amount", "amount %v", amount)
	}

	bonus := EcoBonusRequest{RideID: rideID, CO2SavedKg: utils.MaxCO2SavedKg}
	assert.Empty(t, ValidateStruct(&bonus))
	bonus.CO2SavedKg = 1e300
	assert.Contains(t, ValidateStruct(&bonus).ToMap(), "co2_saved")

	ride := CreateRideRequest{
		Origin:         "Whitefield",
		Destination:    "MG Road",
		DepartureTime:  time.Now().Add(time.Hour),
		SeatsAvailable: 2,
		VehicleType:    "electric",
		DistanceKm:     floatPtr(utils.MaxRideDistanceKm + 1),
	}
	assert.Contains(t, ValidateCreateRide(&ride).ToMap(), "distance_km")
}
