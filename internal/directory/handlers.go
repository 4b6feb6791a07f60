package directory

import (
	"encoding/json"
	"net/http"

	"github.com/PresencePoint/PP-Backend/internal/db"
	"github.com/PresencePoint/PP-Backend/internal/geo"
	"github.com/PresencePoint/PP-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

// knownChannels guards the enabled-channel set on site create/update.
var knownChannels = map[string]struct{}{
	"geolocation": {},
	"qr":          {},
	"ble":         {},
	"nfc":         {},
	"wifi_portal": {},
}

func validChannels(channels []string) bool {
	for _, c := range channels {
		if _, ok := knownChannels[c]; !ok {
			return false
		}
	}
	return true
}

func CreateSiteHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name            string   `json:"name"`
		EnabledChannels []string `json:"enabled_channels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validChannels(input.EnabledChannels) {
		http.Error(w, "Unknown channel in enabled_channels", http.StatusBadRequest)
		return
	}

	site := Site{
		ID:              utils.GenerateUUID(),
		Name:            input.Name,
		EnabledChannels: pq.StringArray(input.EnabledChannels),
	}
	if err := db.DB.Create(&site).Error; err != nil {
		http.Error(w, "Failed to create site", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(site)
}

func ListSitesHandler(w http.ResponseWriter, r *http.Request) {
	var sites []Site
	if err := db.DB.Order("created_at asc").Find(&sites).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sites)
}

func GetSiteHandler(w http.ResponseWriter, r *http.Request) {
	site, err := Lookup{}.SiteByID(chi.URLParam(r, "siteID"))
	if err != nil {
		http.Error(w, "Site not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(site)
}

// UpdateSiteChannelsHandler replaces a site's enabled-channel set. Sites are
// otherwise immutable.
func UpdateSiteChannelsHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		EnabledChannels []string `json:"enabled_channels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validChannels(input.EnabledChannels) {
		http.Error(w, "Unknown channel in enabled_channels", http.StatusBadRequest)
		return
	}

	site, err := Lookup{}.SiteByID(chi.URLParam(r, "siteID"))
	if err != nil {
		http.Error(w, "Site not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Model(&site).Update("enabled_channels", pq.StringArray(input.EnabledChannels)).Error; err != nil {
		http.Error(w, "Failed to update site", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(site)
}

func CreateZoneHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name                    string          `json:"name"`
		Geometry                json.RawMessage `json:"geometry"`
		AccuracyThresholdMeters float64         `json:"accuracy_threshold_meters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Refuse geometry the validator can't use; catching this at create time
	// beats rejecting every later geolocation check-in.
	if g := geo.ParseGeometry(input.Geometry); g.Kind == geo.Invalid {
		http.Error(w, "Geometry must be a Polygon or Point", http.StatusBadRequest)
		return
	}

	site, err := Lookup{}.SiteByID(chi.URLParam(r, "siteID"))
	if err != nil {
		http.Error(w, "Site not found", http.StatusNotFound)
		return
	}

	zone := Zone{
		ID:                      utils.GenerateUUID(),
		SiteID:                  site.ID,
		Name:                    input.Name,
		Geometry:                []byte(input.Geometry),
		AccuracyThresholdMeters: input.AccuracyThresholdMeters,
	}
	if err := db.DB.Create(&zone).Error; err != nil {
		http.Error(w, "Failed to create zone", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(zone)
}

func ListZonesHandler(w http.ResponseWriter, r *http.Request) {
	zones, err := Lookup{}.ZonesBySite(chi.URLParam(r, "siteID"))
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(zones)
}

func DeleteZoneHandler(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")

	// Beacons and tags bound to the zone go with it; an orphaned binding
	// would let hardware check visitors in to a zone that no longer exists.
	db.DB.Where("zone_id = ?", zoneID).Delete(&Beacon{})
	db.DB.Where("zone_id = ?", zoneID).Delete(&NfcTag{})

	if err := db.DB.Delete(&Zone{}, "id = ?", zoneID).Error; err != nil {
		http.Error(w, "Failed to delete zone", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func CreateBeaconHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ZoneID        string `json:"zone_id"`
		ProximityUUID string `json:"proximity_uuid"`
		Major         *int   `json:"major"`
		Minor         *int   `json:"minor"`
		EddystoneUID  string `json:"eddystone_uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	iBeacon := input.ProximityUUID != "" && input.Major != nil && input.Minor != nil
	eddystone := input.EddystoneUID != ""
	if iBeacon == eddystone {
		http.Error(w, "Exactly one of (proximity_uuid, major, minor) or eddystone_uid is required", http.StatusBadRequest)
		return
	}

	zone, err := Lookup{}.ZoneByID(input.ZoneID)
	if err != nil {
		http.Error(w, "Zone not found", http.StatusNotFound)
		return
	}

	beacon := Beacon{
		ID:            utils.GenerateUUID(),
		SiteID:        zone.SiteID,
		ZoneID:        zone.ID,
		ProximityUUID: input.ProximityUUID,
		Major:         input.Major,
		Minor:         input.Minor,
		EddystoneUID:  input.EddystoneUID,
	}
	if err := db.DB.Create(&beacon).Error; err != nil {
		http.Error(w, "Failed to create beacon", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(beacon)
}

func DeleteBeaconHandler(w http.ResponseWriter, r *http.Request) {
	if err := db.DB.Delete(&Beacon{}, "id = ?", chi.URLParam(r, "beaconID")).Error; err != nil {
		http.Error(w, "Failed to delete beacon", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func CreateNfcTagHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ZoneID string `json:"zone_id"`
		TagID  string `json:"tag_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.TagID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	zone, err := Lookup{}.ZoneByID(input.ZoneID)
	if err != nil {
		http.Error(w, "Zone not found", http.StatusNotFound)
		return
	}

	tag := NfcTag{
		ID:     utils.GenerateUUID(),
		SiteID: zone.SiteID,
		ZoneID: zone.ID,
		TagID:  input.TagID,
	}
	if err := db.DB.Create(&tag).Error; err != nil {
		http.Error(w, "Failed to create tag (duplicate tag_id?)", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tag)
}

func DeleteNfcTagHandler(w http.ResponseWriter, r *http.Request) {
	if err := db.DB.Delete(&NfcTag{}, "id = ?", chi.URLParam(r, "tagID")).Error; err != nil {
		http.Error(w, "Failed to delete tag", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
