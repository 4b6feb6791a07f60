package checkin

import (
	"sort"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/directory"
)

// CoPresenceStats summarizes interval overlap for one zone on one day.
type CoPresenceStats struct {
	ZoneID          string `json:"zone_id"`
	ZoneName        string `json:"zone_name"`
	Date            string `json:"date"`
	MaxSimultaneous int    `json:"max_simultaneous"`
	TotalCheckIns   int    `json:"total_check_ins"`
	UniqueVisitors  int    `json:"unique_visitors"`
}

type sweepEvent struct {
	at    time.Time
	delta int
}

// ComputeCoPresence runs a sweep-line over the zone's session intervals
// [checked_in_at, checked_out_at-or-now]: +1 at each check-in, -1 at each
// check-out, scanning in time order and recording the running-sum maximum.
//
// Tie convention: at identical instants the -1 sorts before the +1, so a
// perfect back-to-back handover does not count as an overlap.
func ComputeCoPresence(zone directory.Zone, sessions []Record, now time.Time) CoPresenceStats {
	stats := CoPresenceStats{
		ZoneID:   zone.ID,
		ZoneName: zone.Name,
	}

	events := make([]sweepEvent, 0, 2*len(sessions))
	visitors := make(map[string]struct{})

	for _, rec := range sessions {
		end := now
		if rec.CheckedOutAt != nil {
			end = *rec.CheckedOutAt
		}
		if end.Before(rec.CheckedInAt) {
			continue // corrupt stamps, skip the record
		}

		stats.TotalCheckIns++

		// Anonymous visitors fall back to the session id so each counts once.
		key := rec.ID
		if rec.UserID != nil && *rec.UserID != "" {
			key = *rec.UserID
		}
		visitors[key] = struct{}{}

		events = append(events,
			sweepEvent{at: rec.CheckedInAt, delta: +1},
			sweepEvent{at: end, delta: -1},
		)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			return events[i].delta < events[j].delta
		}
		return events[i].at.Before(events[j].at)
	})

	running := 0
	for _, ev := range events {
		running += ev.delta
		if running > stats.MaxSimultaneous {
			stats.MaxSimultaneous = running
		}
	}

	stats.UniqueVisitors = len(visitors)
	return stats
}
