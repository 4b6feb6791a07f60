package checkin

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; RegisterTagNameFunc makes field errors report the json
// name, which is what ends up in a MissingField rejection.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CheckInRequest is the decoded, channel-tagged check-in. Exactly one payload
// pointer is non-nil, matching Channel. Each channel carries its own strict
// field set; nothing downstream sniffs loose maps.
type CheckInRequest struct {
	Channel Channel `json:"channel"`

	// UserID is optional; anonymous visitors leave it empty.
	UserID string `json:"user_id,omitempty"`

	// ClientIP is filled in by the HTTP layer, not the client.
	ClientIP string `json:"-"`

	Geolocation *GeolocationPayload `json:"geolocation,omitempty"`
	QR          *QRPayload          `json:"qr,omitempty"`
	BLE         *BLEPayload         `json:"ble,omitempty"`
	NFC         *NFCPayload         `json:"nfc,omitempty"`
	WifiPortal  *WifiPortalPayload  `json:"wifi_portal,omitempty"`
}

type GeolocationPayload struct {
	SiteID         string   `json:"site_id" validate:"required"`
	ZoneID         string   `json:"zone_id" validate:"required"`
	Lat            *float64 `json:"lat" validate:"required,latitude"`
	Lng            *float64 `json:"lng" validate:"required,longitude"`
	AccuracyMeters float64  `json:"accuracy_meters"`
}

// QRPayload is the body a scanner app posts after reading a zone's code; the
// code itself embeds the site/zone pair.
type QRPayload struct {
	SiteID string `json:"site_id" validate:"required"`
	ZoneID string `json:"zone_id" validate:"required"`
}

// BLEPayload identifies the sighted beacon. Either the iBeacon triple or the
// Eddystone UID must be present; the one-scheme rule is enforced in the
// resolver because validator tags can't express the three-way tie.
type BLEPayload struct {
	ProximityUUID string `json:"proximity_uuid,omitempty"`
	Major         *int   `json:"major,omitempty"`
	Minor         *int   `json:"minor,omitempty"`
	EddystoneUID  string `json:"eddystone_uid,omitempty"`
}

func (p BLEPayload) iBeacon() bool {
	return p.ProximityUUID != "" && p.Major != nil && p.Minor != nil
}

type NFCPayload struct {
	TagID string `json:"tag_id" validate:"required"`
}

type WifiPortalPayload struct {
	SiteID   string `json:"site_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Document string `json:"document,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Visiting string `json:"visiting,omitempty"`
}

// DecodeCheckInRequest parses a raw HTTP body into the channel union and
// validates the channel's field set. All failures come back as typed
// rejections, never bare errors.
func DecodeCheckInRequest(raw []byte) (CheckInRequest, *Rejection) {
	var req CheckInRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return CheckInRequest{}, rejectMissing("body")
	}

	if !validChannel(req.Channel) {
		return CheckInRequest{}, rejectMissing("channel")
	}

	payload, ok := req.payload()
	if !ok {
		return CheckInRequest{}, rejectMissing(string(req.Channel))
	}

	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return CheckInRequest{}, rejectMissing(verrs[0].Field())
		}
		return CheckInRequest{}, rejectMissing(string(req.Channel))
	}

	return req, nil
}

// payload returns the populated variant for the declared channel.
func (r CheckInRequest) payload() (any, bool) {
	switch r.Channel {
	case ChannelGeolocation:
		if r.Geolocation == nil {
			return nil, false
		}
		return r.Geolocation, true
	case ChannelQR:
		if r.QR == nil {
			return nil, false
		}
		return r.QR, true
	case ChannelBLE:
		if r.BLE == nil {
			return nil, false
		}
		return r.BLE, true
	case ChannelNFC:
		if r.NFC == nil {
			return nil, false
		}
		return r.NFC, true
	case ChannelWifiPortal:
		if r.WifiPortal == nil {
			return nil, false
		}
		return r.WifiPortal, true
	}
	return nil, false
}
