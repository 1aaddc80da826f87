// Package geo provides the great-circle distance used for relay selection.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used by the spherical approximation.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// lat/lng points given in degrees, using the haversine formula on a
// spherical earth. Inputs are not range-checked; callers pass coordinates
// already held in city state.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}
