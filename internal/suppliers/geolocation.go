package suppliers

// GeoErrorCode mirrors the browser geolocation error codes.
type GeoErrorCode int

const (
	GeoOK GeoErrorCode = iota
	GeoPermissionDenied
	GeoPositionUnavailable
	GeoTimeout
)

const geoErrorPrefix = "Unable to get your location. "

// Fix is a position reading or the reason none is available.
type Fix struct {
	Latitude  float64
	Longitude float64
	Err       GeoErrorCode
}

// GeoErrorMessage returns the vendor-facing text for a failed fix.
func GeoErrorMessage(code GeoErrorCode) string {
	switch code {
	case GeoPermissionDenied:
		return geoErrorPrefix + "Please allow location access."
	case GeoPositionUnavailable:
		return geoErrorPrefix + "Location information unavailable."
	case GeoTimeout:
		return geoErrorPrefix + "Location request timed out."
	default:
		return geoErrorPrefix + "An unknown error occurred."
	}
}
