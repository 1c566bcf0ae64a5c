package domain

import "errors"

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrGeocodingFailed     = errors.New("reverse geocoding failed")
	ErrStreamError         = errors.New("location stream error")
	ErrTrackingCancelled   = errors.New("tracking stopped while starting")
	ErrTrackingSuperseded  = errors.New("tracking start superseded by a newer start")
	ErrSessionNotFound     = errors.New("tracking session not found")
	ErrJobNotFound         = errors.New("job not found")
	ErrJobNotTrackable     = errors.New("job cannot be tracked in its current status")
	ErrInvalidJobID        = errors.New("job id is required")
	ErrInvalidRole         = errors.New("invalid participant role")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrForbidden           = errors.New("access forbidden")
)
