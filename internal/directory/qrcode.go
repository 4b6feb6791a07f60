package directory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// QRPayload is what a zone's printed QR code carries; scanner apps post it
// back verbatim as the qr channel check-in body.
type QRPayload struct {
	SiteID string `json:"site_id"`
	ZoneID string `json:"zone_id"`
}

// EncodeQRPayload renders the payload as the compact JSON embedded in the code.
func EncodeQRPayload(p QRPayload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeQRPayload parses a scanned code body.
func DecodeQRPayload(raw []byte) (QRPayload, error) {
	var p QRPayload
	err := json.Unmarshal(raw, &p)
	return p, err
}

// ZoneQRCodeHandler serves a printable QR PNG for a zone. Optional ?size=
// pixels, default 256.
func ZoneQRCodeHandler(w http.ResponseWriter, r *http.Request) {
	zone, err := Lookup{}.ZoneByID(chi.URLParam(r, "zoneID"))
	if err != nil {
		http.Error(w, "Zone not found", http.StatusNotFound)
		return
	}

	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 2048 {
			size = n
		}
	}

	payload, err := EncodeQRPayload(QRPayload{SiteID: zone.SiteID, ZoneID: zone.ID})
	if err != nil {
		http.Error(w, "Failed to encode payload", http.StatusInternalServerError)
		return
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, size)
	if err != nil {
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}
