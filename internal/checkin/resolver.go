package checkin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PresencePoint/PP-Backend/internal/directory"
	"github.com/PresencePoint/PP-Backend/internal/geo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Directory is the lookup surface the resolver needs from the site/zone/
// hardware registry. directory.Lookup satisfies it; tests use fakes.
type Directory interface {
	SiteByID(id string) (directory.Site, error)
	ZoneByID(id string) (directory.Zone, error)
	ZonesBySite(siteID string) ([]directory.Zone, error)
	BeaconByIdentity(proximityUUID string, major, minor int) (directory.Beacon, error)
	BeaconByEddystoneUID(uid string) (directory.Beacon, error)
	NfcTagByTagID(tagID string) (directory.NfcTag, error)
}

// Resolved is a check-in that has passed every channel rule and is ready for
// the ledger. ZoneID stays nil only for channels that don't pin a zone.
type Resolved struct {
	SiteID   string
	ZoneID   *string
	UserID   *string
	Channel  Channel
	Metadata map[string]any
}

// Resolver decides whether a decoded check-in request maps to a real
// site/zone and passes its channel's validation rules.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

var nameCaser = cases.Title(language.Und)

// Resolve returns either a fully resolved check-in or a *Rejection (via the
// error return; use errors.As). Any other error is a directory fault.
func (rv *Resolver) Resolve(req CheckInRequest) (Resolved, error) {
	switch req.Channel {
	case ChannelGeolocation:
		return rv.resolveGeolocation(req)
	case ChannelQR:
		return rv.resolveQR(req)
	case ChannelBLE:
		return rv.resolveBLE(req)
	case ChannelNFC:
		return rv.resolveNFC(req)
	case ChannelWifiPortal:
		return rv.resolveWifiPortal(req)
	}
	return Resolved{}, rejectMissing("channel")
}

// gateSite checks the common precondition: the site exists and has the
// channel enabled.
func (rv *Resolver) gateSite(siteID string, channel Channel) (directory.Site, error) {
	site, err := rv.dir.SiteByID(siteID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.Site{}, reject(RejectSiteNotFound)
		}
		return directory.Site{}, fmt.Errorf("site lookup: %w", err)
	}
	if !site.ChannelEnabled(string(channel)) {
		return directory.Site{}, reject(RejectChannelDisabled)
	}
	return site, nil
}

// siteZone fetches a caller-declared zone and checks it belongs to the site.
func (rv *Resolver) siteZone(site directory.Site, zoneID string) (directory.Zone, error) {
	zone, err := rv.dir.ZoneByID(zoneID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.Zone{}, reject(RejectZoneNotFound)
		}
		return directory.Zone{}, fmt.Errorf("zone lookup: %w", err)
	}
	if zone.SiteID != site.ID {
		return directory.Zone{}, reject(RejectZoneNotFound)
	}
	return zone, nil
}

func (rv *Resolver) resolveGeolocation(req CheckInRequest) (Resolved, error) {
	p := req.Geolocation

	site, err := rv.gateSite(p.SiteID, ChannelGeolocation)
	if err != nil {
		return Resolved{}, err
	}
	zone, err := rv.siteZone(site, p.ZoneID)
	if err != nil {
		return Resolved{}, err
	}

	lat, lng := *p.Lat, *p.Lng
	check := geo.ValidateLocationInZone(lat, lng, zone.Geometry, zone.AccuracyThresholdMeters)
	if check.GeometryInvalid {
		return Resolved{}, reject(RejectInvalidZoneGeometry)
	}
	if !check.Valid {
		return Resolved{}, &Rejection{
			Kind:            RejectOutsideGeofence,
			DistanceMeters:  check.DistanceMeters,
			ThresholdMeters: check.ThresholdMeters,
		}
	}

	meta := req.baseMetadata()
	meta["lat"] = lat
	meta["lng"] = lng
	if p.AccuracyMeters > 0 {
		meta["gps_accuracy_meters"] = p.AccuracyMeters
	}
	if check.InsidePolygon {
		meta["inside_polygon"] = true
	} else {
		// Accepted via the accuracy fallback; keep the distance for audits.
		meta["inside_polygon"] = false
		meta["distance_meters"] = check.DistanceMeters
	}

	return Resolved{
		SiteID:   site.ID,
		ZoneID:   &zone.ID,
		UserID:   req.userID(),
		Channel:  ChannelGeolocation,
		Metadata: meta,
	}, nil
}

func (rv *Resolver) resolveQR(req CheckInRequest) (Resolved, error) {
	p := req.QR

	site, err := rv.gateSite(p.SiteID, ChannelQR)
	if err != nil {
		return Resolved{}, err
	}
	// The scanned code is the proof of physical co-location; only the zone's
	// existence is checked.
	zone, err := rv.siteZone(site, p.ZoneID)
	if err != nil {
		return Resolved{}, err
	}

	return Resolved{
		SiteID:   site.ID,
		ZoneID:   &zone.ID,
		UserID:   req.userID(),
		Channel:  ChannelQR,
		Metadata: req.baseMetadata(),
	}, nil
}

func (rv *Resolver) resolveBLE(req CheckInRequest) (Resolved, error) {
	p := req.BLE

	var beacon directory.Beacon
	var err error
	switch {
	case p.iBeacon():
		beacon, err = rv.dir.BeaconByIdentity(p.ProximityUUID, *p.Major, *p.Minor)
	case p.EddystoneUID != "":
		beacon, err = rv.dir.BeaconByEddystoneUID(p.EddystoneUID)
	default:
		return Resolved{}, rejectMissing("proximity_uuid/major/minor or eddystone_uid")
	}
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Resolved{}, reject(RejectBeaconNotFound)
		}
		return Resolved{}, fmt.Errorf("beacon lookup: %w", err)
	}

	// Physical proximity to the beacon is authoritative: its bound site wins
	// over anything the caller claims.
	site, err := rv.gateSite(beacon.SiteID, ChannelBLE)
	if err != nil {
		return Resolved{}, err
	}

	meta := req.baseMetadata()
	meta["beacon_id"] = beacon.ID
	if p.iBeacon() {
		meta["proximity_uuid"] = p.ProximityUUID
		meta["major"] = *p.Major
		meta["minor"] = *p.Minor
	} else {
		meta["eddystone_uid"] = p.EddystoneUID
	}

	zoneID := beacon.ZoneID
	return Resolved{
		SiteID:   site.ID,
		ZoneID:   &zoneID,
		UserID:   req.userID(),
		Channel:  ChannelBLE,
		Metadata: meta,
	}, nil
}

func (rv *Resolver) resolveNFC(req CheckInRequest) (Resolved, error) {
	p := req.NFC

	tag, err := rv.dir.NfcTagByTagID(p.TagID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Resolved{}, reject(RejectTagNotFound)
		}
		return Resolved{}, fmt.Errorf("tag lookup: %w", err)
	}

	// Same as BLE: the tap proves site identity.
	site, err := rv.gateSite(tag.SiteID, ChannelNFC)
	if err != nil {
		return Resolved{}, err
	}

	meta := req.baseMetadata()
	meta["tag_id"] = tag.TagID

	zoneID := tag.ZoneID
	return Resolved{
		SiteID:   site.ID,
		ZoneID:   &zoneID,
		UserID:   req.userID(),
		Channel:  ChannelNFC,
		Metadata: meta,
	}, nil
}

func (rv *Resolver) resolveWifiPortal(req CheckInRequest) (Resolved, error) {
	p := req.WifiPortal

	site, err := rv.gateSite(p.SiteID, ChannelWifiPortal)
	if err != nil {
		return Resolved{}, err
	}

	// No geofencing and no zone for portal check-ins; the form fields ride
	// along as metadata.
	meta := req.baseMetadata()
	meta["visitor_name"] = nameCaser.String(strings.ToLower(strings.TrimSpace(p.Name)))
	if p.Document != "" {
		meta["document"] = p.Document
	}
	if p.Email != "" {
		meta["email"] = p.Email
	}
	if p.Visiting != "" {
		meta["visiting"] = p.Visiting
	}

	return Resolved{
		SiteID:   site.ID,
		ZoneID:   nil,
		UserID:   req.userID(),
		Channel:  ChannelWifiPortal,
		Metadata: meta,
	}, nil
}

func (r CheckInRequest) baseMetadata() map[string]any {
	meta := make(map[string]any)
	if r.ClientIP != "" {
		meta["ip"] = r.ClientIP
	}
	return meta
}

func (r CheckInRequest) userID() *string {
	if r.UserID == "" {
		return nil
	}
	id := r.UserID
	return &id
}
