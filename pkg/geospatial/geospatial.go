package geospatial

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNonFiniteCoordinate is returned for NaN or infinite coordinates.
var ErrNonFiniteCoordinate = errors.New("coordinate must be a finite number")

// NewPoint builds a point from a latitude/longitude pair. Any finite values
// are accepted; no geographic bounds are enforced.
func NewPoint(lat, lng float64) (orb.Point, error) {
	if !IsFinite(lat) || !IsFinite(lng) {
		return orb.Point{}, ErrNonFiniteCoordinate
	}
	return orb.Point{lng, lat}, nil
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PointFeature wraps a coordinate pair and its properties as a GeoJSON feature.
func PointFeature(lat, lng float64, props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lng, lat})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// CalculateCenter returns the centre of the bounding box of a set of point
// features, used to centre a map on them. Returns false when there are no points.
func CalculateCenter(fc *geojson.FeatureCollection) (orb.Point, bool) {
	if fc == nil || len(fc.Features) == 0 {
		return orb.Point{}, false
	}
	var mp orb.MultiPoint
	for _, f := range fc.Features {
		if p, ok := f.Geometry.(orb.Point); ok {
			mp = append(mp, p)
		}
	}
	if len(mp) == 0 {
		return orb.Point{}, false
	}
	return mp.Bound().Center(), true
}
