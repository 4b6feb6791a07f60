package directory

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Site is a physical location that visitors check in to. EnabledChannels is
// the subset of check-in channels the operator has turned on for the site.
type Site struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	Name            string         `json:"name"`
	EnabledChannels pq.StringArray `gorm:"type:text[]" json:"enabled_channels"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ChannelEnabled reports whether the named channel is on for this site.
func (s Site) ChannelEnabled(channel string) bool {
	for _, c := range s.EnabledChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// Zone is a bounded area within a site. Geometry holds a GeoJSON-shaped
// Polygon or Point document; AccuracyThresholdMeters is the GPS-error radius
// accepted around the geometry's centroid.
type Zone struct {
	ID                      string         `gorm:"primaryKey" json:"id"`
	SiteID                  string         `gorm:"index" json:"site_id"`
	Name                    string         `json:"name"`
	Geometry                datatypes.JSON `json:"geometry"`
	AccuracyThresholdMeters float64        `json:"accuracy_threshold_meters"`
	CreatedAt               time.Time      `json:"created_at"`
}

// Beacon binds a BLE beacon to a zone. Exactly one identification scheme is
// populated: iBeacon (ProximityUUID + Major + Minor) or Eddystone (UID).
type Beacon struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	SiteID        string    `gorm:"index" json:"site_id"`
	ZoneID        string    `gorm:"index" json:"zone_id"`
	ProximityUUID string    `gorm:"index:idx_ibeacon_identity" json:"proximity_uuid,omitempty"`
	Major         *int      `gorm:"index:idx_ibeacon_identity" json:"major,omitempty"`
	Minor         *int      `gorm:"index:idx_ibeacon_identity" json:"minor,omitempty"`
	EddystoneUID  string    `gorm:"index" json:"eddystone_uid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NfcTag binds a physical NFC tag to a zone by its opaque hardware id.
type NfcTag struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SiteID    string    `gorm:"index" json:"site_id"`
	ZoneID    string    `gorm:"index" json:"zone_id"`
	TagID     string    `gorm:"uniqueIndex" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Site) TableName() string   { return "directory.sites" }
func (Zone) TableName() string   { return "directory.zones" }
func (Beacon) TableName() string { return "directory.beacons" }
func (NfcTag) TableName() string { return "directory.nfc_tags" }
