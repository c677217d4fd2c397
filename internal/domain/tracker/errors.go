package tracker

import (
	"errors"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// Geolocation failures reported by position sources.
var (
	ErrLocationDenied      = apperrors.Wrap(apperrors.CodeGeolocationDenied, "location permission denied", nil)
	ErrLocationUnavailable = apperrors.Wrap(apperrors.CodeGeolocationUnavailable, "location unavailable", nil)
	ErrLocationTimeout     = apperrors.Wrap(apperrors.CodeGeolocationTimeout, "location request timed out", nil)

	errAlreadyTracking = apperrors.Wrap(apperrors.CodeInvalidInput, "live tracking is already running", nil)
)

const locationErrorPrefix = "Unable to retrieve your location. "

// LocationErrorMessage renders a geolocation failure for the user.
func LocationErrorMessage(err error) string {
	switch {
	case apperrors.IsCode(err, apperrors.CodeGeolocationDenied):
		return locationErrorPrefix + "Please allow location access in your browser settings."
	case apperrors.IsCode(err, apperrors.CodeGeolocationUnavailable):
		return locationErrorPrefix + "Location information is unavailable."
	case apperrors.IsCode(err, apperrors.CodeGeolocationTimeout):
		return locationErrorPrefix + "Location request timed out."
	default:
		return locationErrorPrefix + "An unknown error occurred."
	}
}

// asLocationError keeps geolocation codes and files anything else under
// "unavailable".
func asLocationError(err error) error {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeGeolocationDenied, apperrors.CodeGeolocationUnavailable, apperrors.CodeGeolocationTimeout:
		return err
	}
	if errors.Is(err, errWatchClosed) {
		return ErrLocationUnavailable
	}
	return apperrors.Wrap(apperrors.CodeGeolocationUnavailable, "location unavailable", err)
}

var errWatchClosed = errors.New("position watch closed")
