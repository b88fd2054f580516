package geo

import (
	"math"

	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

// earthRadiusM is the mean Earth radius used for great-circle distances.
const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Fence is a circular geofence around a center point.
type Fence struct {
	Center  Point   `json:"center"`
	RadiusM float64 `json:"radius_m"`
	Label   string  `json:"label,omitempty"`
}

// Evaluation is the result of a containment check.
type Evaluation struct {
	WithinFence bool    `json:"within_fence"`
	DistanceM   float64 `json:"distance_m"`
}

// Valid reports whether the point is a well-formed coordinate.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	if math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance in meters between two points
// using the haversine formula.
func Distance(a, b Point) float64 {
	latA := radians(a.Latitude)
	latB := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Evaluate checks whether the point lies within the fence. The boundary is
// inclusive: a point at exactly the radius is inside.
func Evaluate(p Point, fence Fence) (*Evaluation, error) {
	if !p.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidCoordinate, "")
	}
	if !fence.Center.Valid() || fence.RadiusM <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCoordinate, "geofence configuration is invalid")
	}
	dist := Distance(p, fence.Center)
	return &Evaluation{WithinFence: dist <= fence.RadiusM, DistanceM: dist}, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
