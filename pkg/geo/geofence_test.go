package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

var hostelCenter = Point{Latitude: 28.986701, Longitude: 77.152050}

func TestDistanceIdenticalPoints(t *testing.T) {
	assert.Zero(t, Distance(hostelCenter, hostelCenter))
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct {
		a, b Point
	}{
		{hostelCenter, Point{Latitude: 28.987500, Longitude: 77.153000}},
		{Point{Latitude: -33.8688, Longitude: 151.2093}, Point{Latitude: 51.5074, Longitude: -0.1278}},
		{Point{Latitude: 0, Longitude: 0}, Point{Latitude: 0.001, Longitude: 0.001}},
	}
	for _, pair := range pairs {
		assert.InDelta(t, Distance(pair.a, pair.b), Distance(pair.b, pair.a), 1e-9)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// One degree of latitude is ~111.2 km on the mean-radius sphere.
	a := Point{Latitude: 28.0, Longitude: 77.0}
	b := Point{Latitude: 29.0, Longitude: 77.0}
	assert.InDelta(t, 111195, Distance(a, b), 50)
}

func TestEvaluateInsideFence(t *testing.T) {
	fence := Fence{Center: hostelCenter, RadiusM: 50}
	eval, err := Evaluate(hostelCenter, fence)
	require.NoError(t, err)
	assert.True(t, eval.WithinFence)
	assert.InDelta(t, 0, eval.DistanceM, 0.01)
}

func TestEvaluateBoundaryInclusive(t *testing.T) {
	// Walk north until the distance is just at/over 50m, then check both sides
	// of the boundary.
	fence := Fence{Center: hostelCenter, RadiusM: 50}

	onEdge := Point{Latitude: hostelCenter.Latitude + 50/111195.0, Longitude: hostelCenter.Longitude}
	distance := Distance(hostelCenter, onEdge)
	fence.RadiusM = distance

	eval, err := Evaluate(onEdge, fence)
	require.NoError(t, err)
	assert.True(t, eval.WithinFence, "point at exactly the radius is inside")

	fence.RadiusM = distance - 0.001
	eval, err = Evaluate(onEdge, fence)
	require.NoError(t, err)
	assert.False(t, eval.WithinFence, "point one unit beyond the radius is outside")
}

func TestEvaluateOutOfFence(t *testing.T) {
	fence := Fence{Center: hostelCenter, RadiusM: 50}
	// ~200m north of the hostel.
	far := Point{Latitude: hostelCenter.Latitude + 200/111195.0, Longitude: hostelCenter.Longitude}
	eval, err := Evaluate(far, fence)
	require.NoError(t, err)
	assert.False(t, eval.WithinFence)
	assert.InDelta(t, 200, eval.DistanceM, 2)
}

func TestEvaluateInvalidCoordinates(t *testing.T) {
	fence := Fence{Center: hostelCenter, RadiusM: 50}
	bad := []Point{
		{Latitude: math.NaN(), Longitude: 77},
		{Latitude: 28, Longitude: math.Inf(1)},
		{Latitude: 91, Longitude: 0},
		{Latitude: 0, Longitude: -181},
	}
	for _, p := range bad {
		_, err := Evaluate(p, fence)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvalidCoordinate.Code, appErrors.FromError(err).Code)
	}
}

func TestEvaluateInvalidFence(t *testing.T) {
	_, err := Evaluate(hostelCenter, Fence{Center: hostelCenter, RadiusM: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCoordinate.Code, appErrors.FromError(err).Code)
}
