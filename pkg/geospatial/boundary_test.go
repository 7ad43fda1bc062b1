package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Roughly a 1km x 1km square near the equator.
const squareBoundary = `{
  "type": "Feature",
  "geometry": {
    "type": "Polygon",
    "coordinates": [[[0, 0], [0.009, 0], [0.009, 0.009], [0, 0.009], [0, 0]]]
  }
}`

func TestParseBoundaryFeature(t *testing.T) {
	geometry, err := ParseBoundary(squareBoundary)
	require.NoError(t, err)
	assert.Equal(t, "Polygon", geometry.GeoJSONType())
}

func TestParseBoundaryBareGeometry(t *testing.T) {
	geometry, err := ParseBoundary(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	require.NoError(t, err)
	assert.Equal(t, "Polygon", geometry.GeoJSONType())
}

func TestParseBoundaryRejectsNonPolygon(t *testing.T) {
	_, err := ParseBoundary(`{"type":"Point","coordinates":[0,0]}`)
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}

func TestParseBoundaryRejectsGarbage(t *testing.T) {
	_, err := ParseBoundary(`not geojson`)
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = ParseBoundary(`{"type":"Feature","geometry":null,"properties":{}}`)
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}

func TestAreaHectares(t *testing.T) {
	geometry, err := ParseBoundary(squareBoundary)
	require.NoError(t, err)

	// ~1 km2 is ~100 ha; geodesic area is approximate.
	area := AreaHectares(geometry)
	assert.InDelta(t, 100, area, 2)
}

func TestCentroid(t *testing.T) {
	geometry, err := ParseBoundary(squareBoundary)
	require.NoError(t, err)

	centroid := Centroid(geometry)
	assert.InDelta(t, 0.0045, centroid.Lon(), 1e-6)
	assert.InDelta(t, 0.0045, centroid.Lat(), 1e-6)
}
