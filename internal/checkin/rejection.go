package checkin

import "fmt"

// RejectionKind enumerates the ways a check-in can be refused. Every
// rejection is an expected outcome the caller can branch on; none are
// server faults.
type RejectionKind string

const (
	RejectSiteNotFound        RejectionKind = "site_not_found"
	RejectZoneNotFound        RejectionKind = "zone_not_found"
	RejectChannelDisabled     RejectionKind = "channel_disabled"
	RejectBeaconNotFound      RejectionKind = "beacon_not_found"
	RejectTagNotFound         RejectionKind = "tag_not_found"
	RejectMissingField        RejectionKind = "missing_field"
	RejectOutsideGeofence     RejectionKind = "outside_geofence"
	RejectInvalidZoneGeometry RejectionKind = "invalid_zone_geometry"
)

// Rejection is a typed refusal. It implements error so it can travel through
// ordinary error returns; callers use errors.As to recover the kind.
type Rejection struct {
	Kind RejectionKind

	// Field names the missing input for RejectMissingField.
	Field string

	// Measured distance and configured threshold for RejectOutsideGeofence,
	// so the caller can explain the refusal to the visitor.
	DistanceMeters  float64
	ThresholdMeters float64
}

func (r *Rejection) Error() string {
	switch r.Kind {
	case RejectMissingField:
		return fmt.Sprintf("check-in rejected: missing field %q", r.Field)
	case RejectOutsideGeofence:
		return fmt.Sprintf("check-in rejected: %.0fm from zone, threshold %.0fm",
			r.DistanceMeters, r.ThresholdMeters)
	default:
		return "check-in rejected: " + string(r.Kind)
	}
}

func reject(kind RejectionKind) *Rejection {
	return &Rejection{Kind: kind}
}

func rejectMissing(field string) *Rejection {
	return &Rejection{Kind: RejectMissingField, Field: field}
}
