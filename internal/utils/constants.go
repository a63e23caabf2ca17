package utils

import "time"

// Application Constants
const (
	AppName    = "GreenRide"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "INR"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour
	PasswordMinLength = 8
	PasswordMaxLength = 128

	// Ride Constants
	MaxSeatsPerRide = 8

	// Payment Constants
	TransactionIDPrefix       = "GC"
	TransactionIDSuffixLength = 9
	TransactionIDMaxAttempts  = 3
	TransactionHistoryLimit   = 50

	// Safety
	MaxEmergencyContacts   = 5
	PositiveFeedbackRating = 4.0
	MaxSafetyScore         = 5.0
	SafetyReportPenalty    = 0.5

	// Locks
	PaymentMethodLockTTL  = 10 * time.Second
	RideCompletionLockTTL = 30 * time.Second
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials  = "invalid credentials"
	ErrUserNotFound        = "user not found"
	ErrUserExists          = "user already exists"
	ErrInvalidToken        = "invalid token"
	ErrInternalServer      = "internal server error"
	ErrUnauthorized        = "unauthorized"
	ErrForbidden           = "forbidden"
	ErrNotFound            = "not found"
	ErrConflict            = "conflict"
	ErrValidationFailed    = "validation failed"
	ErrRideNotFound        = "ride not found"
	ErrNoSeatsAvailable    = "no seats available"
	ErrAlreadyJoinedRide   = "already joined"
	ErrPaymentMethodAbsent = "payment method not found"
)

// Cache Keys
const (
	CacheLockPrefix          = "lock:"
	CachePaymentMethodPrefix = "payment_methods:"
	CacheRideCompletePrefix  = "ride_completion:"
)

// Event types
const (
	EventUserRegistered   = "user_registered"
	EventUserLogin        = "user_login"
	EventRideCreated      = "ride_created"
	EventRideJoined       = "ride_joined"
	EventRideCompleted    = "ride_completed"
	EventPaymentProcessed = "payment_processed"
	EventEcoBonusAwarded  = "eco_bonus_awarded"
	EventGreenPointsAdded = "green_points_added"
	EventLocationUpdate   = "location_update"
)
