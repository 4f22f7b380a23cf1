package errors

import "errors"

var (
	ErrNotFound = errors.New("parking space not found")

	ErrInvalidID = errors.New("invalid parking space ID format")

	ErrAddressNotFound = errors.New("address could not be geocoded")

	ErrGeocoderUnavailable = errors.New("geocoding provider unavailable")
)
