package checkin

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/cache"
	"github.com/PresencePoint/PP-Backend/internal/directory"
	"github.com/go-chi/chi/v5"
)

// Package-level engine and cache, wired by Init. Mirrors how the other
// modules expose their handlers.
var (
	engine            *Engine
	snapshots         *cache.Snapshots
	defaultWindowDays = 7
)

// rejectionStatus maps each rejection kind to an HTTP status. Not-found kinds
// are 404, refused-by-policy kinds are 403, bad input is 400, and a broken
// zone geometry is the operator's problem, not the visitor's: 422.
func rejectionStatus(kind RejectionKind) int {
	switch kind {
	case RejectSiteNotFound, RejectZoneNotFound, RejectBeaconNotFound, RejectTagNotFound:
		return http.StatusNotFound
	case RejectChannelDisabled, RejectOutsideGeofence:
		return http.StatusForbidden
	case RejectMissingField:
		return http.StatusBadRequest
	case RejectInvalidZoneGeometry:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

type rejectionResponse struct {
	Rejection       RejectionKind `json:"rejection"`
	Field           string        `json:"field,omitempty"`
	DistanceMeters  float64       `json:"distance_meters,omitempty"`
	ThresholdMeters float64       `json:"threshold_meters,omitempty"`
	Message         string        `json:"message"`
}

func writeRejection(w http.ResponseWriter, rej *Rejection) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rejectionStatus(rej.Kind))
	json.NewEncoder(w).Encode(rejectionResponse{
		Rejection:       rej.Kind,
		Field:           rej.Field,
		DistanceMeters:  rej.DistanceMeters,
		ThresholdMeters: rej.ThresholdMeters,
		Message:         rej.Error(),
	})
}

func CheckInHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		http.Error(w, "Body too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	req, rej := DecodeCheckInRequest(body)
	if rej != nil {
		writeRejection(w, rej)
		return
	}

	if ip, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
		req.ClientIP = ip
	} else {
		req.ClientIP = r.RemoteAddr
	}

	rec, err := engine.ResolveAndCheckIn(req)
	if err != nil {
		var rejection *Rejection
		if errors.As(err, &rejection) {
			writeRejection(w, rejection)
			return
		}
		http.Error(w, "Check-in failed", http.StatusInternalServerError)
		return
	}

	snapshots.Invalidate(r.Context(), occupancyKey(rec.SiteID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

func CheckOutHandler(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")

	ok, err := engine.CheckOut(recordID)
	if err != nil {
		http.Error(w, "Check-out failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Unknown record or already checked out", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"checked_out": true})
}

func occupancyKey(siteID string) string {
	return "occupancy:" + siteID
}

func OccupancyHandler(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	var metrics Metrics
	if !snapshots.Get(r.Context(), occupancyKey(siteID), &metrics) {
		var err error
		metrics, err = engine.Occupancy(siteID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				http.Error(w, "Site not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to compute occupancy", http.StatusInternalServerError)
			return
		}
		snapshots.Set(r.Context(), occupancyKey(siteID), metrics)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}

func InsightsHandler(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	windowDays := defaultWindowDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 90 {
			http.Error(w, "days must be between 1 and 90", http.StatusBadRequest)
			return
		}
		windowDays = n
	}

	insights, recommendations, err := engine.Insights(siteID, windowDays)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			http.Error(w, "Site not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to compute insights", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"insights":        insights,
		"recommendations": recommendations,
		"window_days":     windowDays,
	})
}

func CoPresenceHandler(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	date := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	stats, err := engine.CoPresence(siteID, date)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			http.Error(w, "Site not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to compute co-presence", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ActiveSessionsHandler lists a site's open sessions for dashboards.
func ActiveSessionsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := engine.ledger.ActiveSessions(chi.URLParam(r, "siteID"))
	if err != nil {
		http.Error(w, "Failed to list active sessions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
