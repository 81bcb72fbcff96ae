package domain

import "errors"

// Lookup error taxonomy. Every backend-specific failure is normalized into one
// of these before it leaves the adapter dispatch layer.
var (
	// ErrUnsupportedCarrier means no backend is registered for the carrier id.
	// Fatal for that package's lookup; not retried automatically.
	ErrUnsupportedCarrier = errors.New("unsupported carrier")
	// ErrBackendUnavailable is a transient network or timeout failure; the
	// next scheduled cycle retries it.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrTrackingNotFound means the backend responded that the tracking
	// number is unknown to it.
	ErrTrackingNotFound = errors.New("tracking number not found")
	// ErrBackendError covers any other unexpected backend failure.
	ErrBackendError = errors.New("backend error")
)

// ErrDeliveryUnavailable means the notification channel could not be reached.
// Never fails the refresh cycle that produced the event.
var ErrDeliveryUnavailable = errors.New("notification channel unavailable")

var (
	ErrPackageNotFound  = errors.New("package not found")
	ErrDuplicatePackage = errors.New("package already registered")
	// ErrCarrierNotDetected is returned when registration omits the carrier
	// and no detection rule matches the tracking number.
	ErrCarrierNotDetected = errors.New("carrier could not be detected")
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrForbidden          = errors.New("access forbidden")
)
