package directory

import (
	"errors"

	"github.com/PresencePoint/PP-Backend/internal/db"
	"gorm.io/gorm"
)

// ErrNotFound is the single "no such entity" answer the lookup surface gives;
// callers never see gorm errors.
var ErrNotFound = errors.New("directory: not found")

// Lookup is the read-only directory surface the check-in engine resolves
// sites, zones and hardware identities through. Zero value is ready to use.
type Lookup struct{}

func (Lookup) SiteByID(id string) (Site, error) {
	var site Site
	if err := db.DB.First(&site, "id = ?", id).Error; err != nil {
		return Site{}, mapErr(err)
	}
	return site, nil
}

func (Lookup) ZoneByID(id string) (Zone, error) {
	var zone Zone
	if err := db.DB.First(&zone, "id = ?", id).Error; err != nil {
		return Zone{}, mapErr(err)
	}
	return zone, nil
}

func (Lookup) ZonesBySite(siteID string) ([]Zone, error) {
	var zones []Zone
	if err := db.DB.Order("created_at asc").Find(&zones, "site_id = ?", siteID).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (Lookup) BeaconByIdentity(proximityUUID string, major, minor int) (Beacon, error) {
	var beacon Beacon
	err := db.DB.First(&beacon,
		"proximity_uuid = ? AND major = ? AND minor = ?", proximityUUID, major, minor).Error
	if err != nil {
		return Beacon{}, mapErr(err)
	}
	return beacon, nil
}

func (Lookup) BeaconByEddystoneUID(uid string) (Beacon, error) {
	var beacon Beacon
	if err := db.DB.First(&beacon, "eddystone_uid = ?", uid).Error; err != nil {
		return Beacon{}, mapErr(err)
	}
	return beacon, nil
}

func (Lookup) NfcTagByTagID(tagID string) (NfcTag, error) {
	var tag NfcTag
	if err := db.DB.First(&tag, "tag_id = ?", tagID).Error; err != nil {
		return NfcTag{}, mapErr(err)
	}
	return tag, nil
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
