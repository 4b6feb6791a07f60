package checkin

import (
	"time"

	"gorm.io/datatypes"
)

// Channel is the method a visitor used to prove presence.
type Channel string

const (
	ChannelGeolocation Channel = "geolocation"
	ChannelQR          Channel = "qr"
	ChannelBLE         Channel = "ble"
	ChannelNFC         Channel = "nfc"
	ChannelWifiPortal  Channel = "wifi_portal"
)

// Channels lists every known channel, in the order they are reported.
var Channels = []Channel{ChannelGeolocation, ChannelQR, ChannelBLE, ChannelNFC, ChannelWifiPortal}

func validChannel(c Channel) bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

// Record is one check-in session. ZoneID is null only for channels that do
// not mandate zone resolution (wifi_portal); UserID is null for anonymous
// visitors. CheckedOutAt is set at most once, by the ledger.
type Record struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	SiteID       string            `gorm:"index" json:"site_id"`
	ZoneID       *string           `gorm:"index" json:"zone_id"`
	UserID       *string           `gorm:"index" json:"user_id"`
	Channel      Channel           `gorm:"index" json:"channel"`
	CheckedInAt  time.Time         `gorm:"index" json:"checked_in_at"`
	CheckedOutAt *time.Time        `json:"checked_out_at"`
	Metadata     datatypes.JSONMap `json:"metadata"`
}

func (Record) TableName() string { return "presence.check_ins" }

// Active reports whether the session has not been closed yet.
func (r Record) Active() bool { return r.CheckedOutAt == nil }

// DwellMinutes is the whole-minute dwell of a closed session. The second
// return is false for sessions that are still open or have corrupt stamps;
// those are skipped by every aggregate, never counted as zero.
func (r Record) DwellMinutes() (int, bool) {
	if r.CheckedOutAt == nil {
		return 0, false
	}
	d := r.CheckedOutAt.Sub(r.CheckedInAt)
	if d < 0 {
		return 0, false
	}
	return int(d.Minutes()), true
}

// Filter narrows ledger queries. From/To bound checked_in_at as [From, To);
// zero times leave the bound open. Empty string fields are ignored.
type Filter struct {
	SiteID     string
	ZoneID     string
	UserID     string
	Channel    Channel
	From       time.Time
	To         time.Time
	ActiveOnly bool
	Limit      int
	Offset     int
}
