package geospatial

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidBoundary is returned for boundaries that are not valid GeoJSON
// polygons.
var ErrInvalidBoundary = errors.New("invalid site boundary")

// ParseBoundary parses a restoration site boundary. Both a bare geometry and
// a Feature wrapper are accepted; the geometry must be a Polygon or
// MultiPolygon.
func ParseBoundary(raw string) (orb.Geometry, error) {
	var geometry orb.Geometry

	if feature, err := geojson.UnmarshalFeature([]byte(raw)); err == nil {
		geometry = feature.Geometry
	} else if g, err := geojson.UnmarshalGeometry([]byte(raw)); err == nil {
		geometry = g.Geometry()
	} else {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
	}

	switch geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return geometry, nil
	case nil:
		return nil, fmt.Errorf("%w: no geometry", ErrInvalidBoundary)
	default:
		return nil, fmt.Errorf("%w: geometry must be a Polygon or MultiPolygon, got %s",
			ErrInvalidBoundary, geometry.GeoJSONType())
	}
}

// AreaHectares computes the geodesic area of a boundary in hectares.
func AreaHectares(geometry orb.Geometry) float64 {
	return geo.Area(geometry) / 10000
}

// Centroid returns the centroid of a boundary as (longitude, latitude).
func Centroid(geometry orb.Geometry) orb.Point {
	centroid, _ := planar.CentroidArea(geometry)
	return centroid
}
