package checkin

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/directory"
)

// Engine wires the resolver, ledger and aggregation into the five operations
// the HTTP layer (or any other binding) consumes.
type Engine struct {
	resolver *Resolver
	ledger   *Ledger
	dir      Directory
	now      func() time.Time
}

func NewEngine(dir Directory, store Store) *Engine {
	return &Engine{
		resolver: NewResolver(dir),
		ledger:   NewLedger(store),
		dir:      dir,
		now:      time.Now,
	}
}

// ResolveAndCheckIn runs the full inbound path: decode already happened, so
// this resolves the channel, validates, and records. The returned error is a
// *Rejection for every expected refusal.
func (e *Engine) ResolveAndCheckIn(req CheckInRequest) (Record, error) {
	resolved, err := e.resolver.Resolve(req)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			log.Printf("[presence] check-in rejected site=%v channel=%s kind=%s",
				siteOf(req), req.Channel, rej.Kind)
		}
		return Record{}, err
	}

	rec, err := e.ledger.RecordCheckIn(resolved)
	if err != nil {
		return Record{}, fmt.Errorf("record check-in: %w", err)
	}

	log.Printf("[presence] check-in site=%s zone=%v channel=%s id=%s",
		rec.SiteID, zoneOf(rec), rec.Channel, rec.ID)
	return rec, nil
}

// CheckOut closes a session; see Ledger.RecordCheckOut for the contract.
func (e *Engine) CheckOut(recordID string) (bool, error) {
	return e.ledger.RecordCheckOut(recordID)
}

// Occupancy computes the point-in-time metrics for a site.
func (e *Engine) Occupancy(siteID string) (Metrics, error) {
	if _, err := e.dir.SiteByID(siteID); err != nil {
		return Metrics{}, err
	}
	zones, err := e.dir.ZonesBySite(siteID)
	if err != nil {
		return Metrics{}, err
	}

	now := e.now()
	active, err := e.ledger.ActiveSessions(siteID)
	if err != nil {
		return Metrics{}, err
	}
	today, err := e.ledger.SessionsInRange(Filter{
		SiteID: siteID,
		From:   startOfDay(now),
		To:     startOfDay(now).AddDate(0, 0, 1),
	})
	if err != nil {
		return Metrics{}, err
	}

	return ComputeOccupancy(active, today, zones, now), nil
}

// Insights evaluates the rules over the trailing windowDays calendar days
// (today included) plus the current occupancy snapshot.
func (e *Engine) Insights(siteID string, windowDays int) ([]Insight, []string, error) {
	if windowDays < 1 {
		windowDays = 7
	}

	metrics, err := e.Occupancy(siteID)
	if err != nil {
		return nil, nil, err
	}
	zones, err := e.dir.ZonesBySite(siteID)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	from := startOfDay(now).AddDate(0, 0, -(windowDays - 1))
	window, err := e.ledger.SessionsInRange(Filter{
		SiteID: siteID,
		From:   from,
		To:     startOfDay(now).AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, nil, err
	}

	insights := GenerateInsights(metrics, window, windowDays, now)
	recs := Recommendations(metrics, zones, window)
	return insights, recs, nil
}

// CoPresence computes per-zone overlap stats for one calendar day.
func (e *Engine) CoPresence(siteID string, date time.Time) ([]CoPresenceStats, error) {
	if _, err := e.dir.SiteByID(siteID); err != nil {
		return nil, err
	}
	zones, err := e.dir.ZonesBySite(siteID)
	if err != nil {
		return nil, err
	}

	dayStart := startOfDay(date)
	dayEnd := dayStart.AddDate(0, 0, 1)
	now := e.now()

	stats := make([]CoPresenceStats, 0, len(zones))
	for _, zone := range zones {
		sessions, err := e.ledger.SessionsInRange(Filter{
			SiteID: siteID,
			ZoneID: zone.ID,
			From:   dayStart,
			To:     dayEnd,
		})
		if err != nil {
			return nil, err
		}
		zoneStats := ComputeCoPresence(zone, sessions, now)
		zoneStats.Date = dayStart.Format("2006-01-02")
		stats = append(stats, zoneStats)
	}
	return stats, nil
}

func siteOf(req CheckInRequest) string {
	switch req.Channel {
	case ChannelGeolocation:
		if req.Geolocation != nil {
			return req.Geolocation.SiteID
		}
	case ChannelQR:
		if req.QR != nil {
			return req.QR.SiteID
		}
	case ChannelWifiPortal:
		if req.WifiPortal != nil {
			return req.WifiPortal.SiteID
		}
	}
	return "-"
}

func zoneOf(rec Record) string {
	if rec.ZoneID == nil {
		return "-"
	}
	return *rec.ZoneID
}

var _ Directory = directory.Lookup{}
