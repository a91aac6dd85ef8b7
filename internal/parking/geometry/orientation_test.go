package geometry

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrientation(t *testing.T) {
	t.Parallel()

	slot := rect(0, 0, 2.5, 5)
	center := orb.Point{1.25, 2.5}

	tests := []struct {
		name string
		poly Polygon
		want float64
	}{
		{"axis aligned", slot, 0},
		{"rotated +3", rotated(slot, 3, center), 3},
		{"rotated -3", rotated(slot, -3, center), -3},
		{"rotated +8 past tolerance edge", rotated(slot, 8, center), 8},
		{"clockwise winding", NewPolygon([2]float64{0, 0}, [2]float64{0, 5}, [2]float64{2.5, 5}, [2]float64{2.5, 0}), 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Orientation(tt.poly, DefaultHorizontalToleranceDeg)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestOrientation_NoHorizontalEdge(t *testing.T) {
	t.Parallel()

	tri := NewPolygon([2]float64{0, 0}, [2]float64{1, 1}, [2]float64{0, 2})
	_, err := Orientation(tri, DefaultHorizontalToleranceDeg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHorizontalEdge))

	var gerr *GeometryError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "orientation", gerr.Op)
}

func TestOrientation_DegeneratePolygon(t *testing.T) {
	t.Parallel()

	_, err := Orientation(NewPolygon([2]float64{0, 0}, [2]float64{1, 0}), DefaultHorizontalToleranceDeg)
	assert.True(t, errors.Is(err, ErrDegeneratePolygon))
}

func TestHorizontalEdge(t *testing.T) {
	t.Parallel()

	t.Run("orders by x", func(t *testing.T) {
		t.Parallel()
		p := NewPolygon([2]float64{3, 1}, [2]float64{0, 1.1}, [2]float64{1, 5})
		a, b, err := HorizontalEdge(p, 10)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{0, 1.1}, a)
		assert.Equal(t, orb.Point{3, 1}, b)
	})

	t.Run("picks flattest pair", func(t *testing.T) {
		t.Parallel()
		p := NewPolygon([2]float64{0, 0}, [2]float64{4, 0.5}, [2]float64{4, 3}, [2]float64{0, 3})
		a, b, err := HorizontalEdge(p, 10)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{0, 3}, a)
		assert.Equal(t, orb.Point{4, 3}, b)
	})

	t.Run("two points are enough", func(t *testing.T) {
		t.Parallel()
		_, _, err := HorizontalEdge(NewPolygon([2]float64{0, 0}, [2]float64{2, 0}), 10)
		assert.NoError(t, err)
	})

	t.Run("single point fails", func(t *testing.T) {
		t.Parallel()
		_, _, err := HorizontalEdge(NewPolygon([2]float64{0, 0}), 10)
		assert.True(t, errors.Is(err, ErrNoHorizontalEdge))
	})

	t.Run("zero length pairs ignored", func(t *testing.T) {
		t.Parallel()
		_, _, err := HorizontalEdge(make(Polygon, 4), 10)
		assert.True(t, errors.Is(err, ErrNoHorizontalEdge))
	})
}

func TestOrientationDifference(t *testing.T) {
	t.Parallel()

	slot := rect(0, 0, 2.5, 5)
	diff, err := OrientationDifference(slot, rotated(slot, -4, orb.Point{1.25, 2.5}), 10)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, diff, 1e-9)

	diff, err = OrientationDifference(slot, slot, 10)
	require.NoError(t, err)
	assert.Zero(t, diff)
}
