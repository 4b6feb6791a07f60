package checkin

import (
	"math"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/directory"
)

// UnknownZoneBucket is the by_zone key for sessions without a resolved zone
// (wifi_portal check-ins).
const UnknownZoneBucket = "_unknown"

type ZoneOccupancy struct {
	Current    int `json:"current"`
	TotalToday int `json:"total_today"`
}

// Metrics is the point-in-time occupancy view for one site.
type Metrics struct {
	Current             int                      `json:"current"`
	PeakToday           int                      `json:"peak_today"`
	PeakHourToday       int                      `json:"peak_hour_today"`
	AverageDwellMinutes int                      `json:"average_dwell_minutes"`
	ByZone              map[string]ZoneOccupancy `json:"by_zone"`
	ByChannel           map[Channel]int          `json:"by_channel"`
}

// ComputeOccupancy derives the metrics from the site's active sessions and
// today's sessions (local-midnight to now). It is a pure function; the engine
// supplies the slices from the ledger. A record with a corrupt stamp is
// skipped, never fatal.
func ComputeOccupancy(active, today []Record, zones []directory.Zone, now time.Time) Metrics {
	m := Metrics{
		Current:   len(active),
		ByZone:    make(map[string]ZoneOccupancy),
		ByChannel: make(map[Channel]int),
	}

	// Every known zone appears even with zero counts.
	for _, z := range zones {
		m.ByZone[z.ID] = ZoneOccupancy{}
	}

	// Hour-of-day buckets for today's check-ins; earliest hour wins ties.
	var hourCounts [24]int
	for _, rec := range today {
		if rec.CheckedInAt.After(now) {
			continue // corrupt future stamp
		}
		hourCounts[rec.CheckedInAt.Hour()]++

		bucket := zoneBucket(rec)
		zo := m.ByZone[bucket]
		zo.TotalToday++
		m.ByZone[bucket] = zo
	}
	for hour := 0; hour < 24; hour++ {
		if hourCounts[hour] > m.PeakToday {
			m.PeakToday = hourCounts[hour]
			m.PeakHourToday = hour
		}
	}

	// Dwell averages only closed sessions; an open session is excluded, not
	// counted as zero.
	var dwellSum, dwellN int
	for _, rec := range today {
		if minutes, ok := rec.DwellMinutes(); ok {
			dwellSum += minutes
			dwellN++
		}
	}
	if dwellN > 0 {
		m.AverageDwellMinutes = int(math.Round(float64(dwellSum) / float64(dwellN)))
	}

	// Current per zone and per channel come from the active set, which may
	// include sessions opened before today.
	for _, rec := range active {
		bucket := zoneBucket(rec)
		zo := m.ByZone[bucket]
		zo.Current++
		m.ByZone[bucket] = zo

		m.ByChannel[rec.Channel]++
	}

	return m
}

func zoneBucket(rec Record) string {
	if rec.ZoneID == nil || *rec.ZoneID == "" {
		return UnknownZoneBucket
	}
	return *rec.ZoneID
}
