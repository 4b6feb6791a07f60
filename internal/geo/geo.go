// Package geo holds the pure geometry used by check-in validation: a
// ray-casting point-in-polygon test, haversine distance, and a typed parse of
// the zone geometry stored in the directory. Nothing in here touches the
// database or panics on bad input.
package geo

import (
	"encoding/json"
	"math"
)

const earthRadiusMeters = 6371000

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64
	Lng float64
}

type GeometryKind int

const (
	Invalid GeometryKind = iota
	PolygonKind
	PointKind
)

// Geometry is the typed result of parsing a stored zone geometry. Ring is
// populated for both kinds: a Point becomes a small synthetic square so the
// containment path is uniform for point-only zones.
type Geometry struct {
	Kind GeometryKind
	Ring []Coordinate
}

// pointHalfWidthDeg is the half-width of the synthetic square built around a
// Point geometry, roughly 11m of latitude.
const pointHalfWidthDeg = 0.0001

// rawGeometry matches the GeoJSON-shaped documents the directory stores.
type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseGeometry decodes a stored geometry document. Polygon uses the first
// ring only. Anything unrecognized, including rings with fewer than 3 points,
// yields Kind == Invalid; callers must treat that distinctly from "outside".
func ParseGeometry(raw []byte) Geometry {
	var g rawGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return Geometry{Kind: Invalid}
	}

	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil || len(rings) == 0 {
			return Geometry{Kind: Invalid}
		}
		ring := make([]Coordinate, 0, len(rings[0]))
		for _, pair := range rings[0] {
			// GeoJSON order is [lng, lat]
			ring = append(ring, Coordinate{Lat: pair[1], Lng: pair[0]})
		}
		if len(ring) < 3 {
			return Geometry{Kind: Invalid}
		}
		return Geometry{Kind: PolygonKind, Ring: ring}

	case "Point":
		var pair [2]float64
		if err := json.Unmarshal(g.Coordinates, &pair); err != nil {
			return Geometry{Kind: Invalid}
		}
		lng, lat := pair[0], pair[1]
		ring := []Coordinate{
			{Lat: lat - pointHalfWidthDeg, Lng: lng - pointHalfWidthDeg},
			{Lat: lat - pointHalfWidthDeg, Lng: lng + pointHalfWidthDeg},
			{Lat: lat + pointHalfWidthDeg, Lng: lng + pointHalfWidthDeg},
			{Lat: lat + pointHalfWidthDeg, Lng: lng - pointHalfWidthDeg},
		}
		return Geometry{Kind: PointKind, Ring: ring}
	}

	return Geometry{Kind: Invalid}
}

// PointInPolygon runs an even-odd ray cast: a horizontal ray from the test
// point toggles membership each time it crosses an edge. Horizontal edges are
// skipped (they can't be crossed and would divide by zero). Rings shorter
// than 3 points are never "inside".
func PointInPolygon(lat, lng float64, ring []Coordinate) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, xi := ring[i].Lat, ring[i].Lng
		yj, xj := ring[j].Lat, ring[j].Lng
		if yi != yj &&
			(yi > lat) != (yj > lat) &&
			xi+(lat-yi)*(xj-xi)/(yj-yi) > lng {
			inside = !inside
		}
		j = i
	}
	return inside
}

// HaversineMeters is the great-circle distance between two WGS84 points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Centroid is the arithmetic mean of the ring vertices. Good enough as a
// reference point for the GPS-error fallback; zones are small.
func Centroid(ring []Coordinate) Coordinate {
	if len(ring) == 0 {
		return Coordinate{}
	}
	var lat, lng float64
	for _, c := range ring {
		lat += c.Lat
		lng += c.Lng
	}
	n := float64(len(ring))
	return Coordinate{Lat: lat / n, Lng: lng / n}
}

// ZoneCheck is the outcome of validating a reported location against a zone.
type ZoneCheck struct {
	Valid           bool
	InsidePolygon   bool
	GeometryInvalid bool
	// DistanceMeters is the measured distance from the zone centroid. Only
	// meaningful when the polygon test missed (fallback path or rejection).
	DistanceMeters  float64
	ThresholdMeters float64
}

// ValidateLocationInZone applies the geofence: inside the polygon is valid;
// otherwise a point within thresholdMeters of the ring centroid is still
// accepted as GPS error, with the measured distance reported for auditing.
// Unparseable geometry rejects unconditionally with GeometryInvalid set so
// callers can tell operator misconfiguration from a visitor being elsewhere.
func ValidateLocationInZone(lat, lng float64, geometry []byte, thresholdMeters float64) ZoneCheck {
	g := ParseGeometry(geometry)
	if g.Kind == Invalid {
		return ZoneCheck{GeometryInvalid: true, ThresholdMeters: thresholdMeters}
	}

	if PointInPolygon(lat, lng, g.Ring) {
		return ZoneCheck{Valid: true, InsidePolygon: true, ThresholdMeters: thresholdMeters}
	}

	center := Centroid(g.Ring)
	dist := HaversineMeters(lat, lng, center.Lat, center.Lng)
	return ZoneCheck{
		Valid:           dist <= thresholdMeters,
		DistanceMeters:  dist,
		ThresholdMeters: thresholdMeters,
	}
}
