package gtfs2neo4j

import (
	"fmt"

	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

// stopClip decides which stops are inside the clip feature. A nil *stopClip
// keeps every stop.
type stopClip struct {
	feature geojson.Object
	outside map[string]struct{}
}

func newStopClip(clipFeature string) (*stopClip, error) {
	if clipFeature == "" {
		return nil, nil
	}
	feature, err := geojson.Parse(clipFeature, &geojson.ParseOptions{RequireValid: true})
	if err != nil {
		return nil, fmt.Errorf("parse clip feature: %w", err)
	}
	return &stopClip{feature: feature, outside: make(map[string]struct{})}, nil
}

// keep reports whether the stop is inside the feature, remembering the stop
// if it is not. Stops without coordinates are outside.
func (c *stopClip) keep(props Props) bool {
	if c == nil {
		return true
	}
	stopID, hasID := props["stop_id"].(string)
	lat, latOK := props["latitude"].(float64)
	lng, lngOK := props["longitude"].(float64)
	if latOK && lngOK && c.feature.Contains(geojson.NewPoint(geometry.Point{X: lng, Y: lat})) {
		return true
	}
	if hasID {
		c.outside[stopID] = struct{}{}
	}
	return false
}

func (c *stopClip) clipped(stopID any) bool {
	if c == nil {
		return false
	}
	id, ok := stopID.(string)
	if !ok {
		return false
	}
	_, ok = c.outside[id]
	return ok
}

func (c *stopClip) numPoints() int {
	if c == nil {
		return 0
	}
	return c.feature.NumPoints()
}
