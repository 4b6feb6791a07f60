package checkin

import (
	"fmt"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/directory"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Insight is one rule's finding over current occupancy plus the rolling
// window. Data carries the numbers behind the message.
type Insight struct {
	Type       string         `json:"type"`
	Severity   Severity       `json:"severity"`
	Confidence float64        `json:"confidence"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data"`
}

var channelCaser = cases.Title(language.English)

func displayChannel(c Channel) string {
	switch c {
	case ChannelQR:
		return "QR code"
	case ChannelBLE:
		return "BLE beacon"
	case ChannelNFC:
		return "NFC tag"
	case ChannelWifiPortal:
		return "WiFi portal"
	default:
		return channelCaser.String(string(c))
	}
}

// GenerateInsights evaluates every rule independently; none are mutually
// exclusive, so all applicable rules fire. window is the site's sessions over
// the trailing windowDays calendar days including today.
func GenerateInsights(m Metrics, window []Record, windowDays int, now time.Time) []Insight {
	var insights []Insight

	// Rule 1: at or near today's peak right now.
	if m.Current > 0 && float64(m.Current) >= 0.9*float64(m.PeakToday) {
		insights = append(insights, Insight{
			Type:       "occupancy_peak",
			Severity:   SeverityWarning,
			Confidence: 0.95,
			Message: fmt.Sprintf("Occupancy is at or near today's peak (%d now, peak %d)",
				m.Current, m.PeakToday),
			Data: map[string]any{
				"current":    m.Current,
				"peak_today": m.PeakToday,
			},
		})
	}

	// Rule 2: channel preference, only meaningful when more than one channel
	// is in use right now.
	if activeChannels(m.ByChannel) > 1 {
		top, count := topChannel(m.ByChannel)
		insights = append(insights, Insight{
			Type:       "channel_preference",
			Severity:   SeverityInfo,
			Confidence: 0.85,
			Message: fmt.Sprintf("%s is the most used check-in channel right now (%d active)",
				displayChannel(top), count),
			Data: map[string]any{
				"channel": string(top),
				"active":  count,
			},
		})
	}

	// Rule 3: dwell-time summary.
	if m.AverageDwellMinutes > 0 {
		insights = append(insights, Insight{
			Type:       "dwell_time",
			Severity:   SeverityInfo,
			Confidence: 0.9,
			Message:    fmt.Sprintf("Visitors stay %d minutes on average today", m.AverageDwellMinutes),
			Data: map[string]any{
				"average_dwell_minutes": m.AverageDwellMinutes,
			},
		})
	}

	// Rule 4: today unusually busy versus the rolling average. The window
	// deliberately includes today in both numerator and denominator; the 1.5x
	// threshold was tuned against that behavior.
	if windowDays > 0 {
		midnight := startOfDay(now)
		todayCount := 0
		for _, rec := range window {
			if !rec.CheckedInAt.Before(midnight) && !rec.CheckedInAt.After(now) {
				todayCount++
			}
		}
		avgPerDay := float64(len(window)) / float64(windowDays)
		if float64(todayCount) > 1.5*avgPerDay {
			insights = append(insights, Insight{
				Type:       "unusual_activity",
				Severity:   SeveritySuccess,
				Confidence: 0.8,
				Message: fmt.Sprintf("Today's %d check-ins are well above the %d-day average of %.1f/day",
					todayCount, windowDays, avgPerDay),
				Data: map[string]any{
					"today":           todayCount,
					"window_days":     windowDays,
					"avg_per_day":     avgPerDay,
					"threshold_ratio": 1.5,
				},
			})
		}
	}

	return insights
}

// Recommendations are heuristic, non-binding suggestions; plain strings by
// design, not typed insights.
func Recommendations(m Metrics, zones []directory.Zone, window []Record) []string {
	var recs []string

	var sawGeo, sawBLE bool
	for _, rec := range window {
		switch rec.Channel {
		case ChannelGeolocation:
			sawGeo = true
		case ChannelBLE:
			sawBLE = true
		}
	}
	if sawGeo && !sawBLE {
		recs = append(recs, "Visitors rely on GPS check-ins only; installing BLE beacons would make indoor check-ins faster and more reliable.")
	}

	if len(zones) > 1 && m.AverageDwellMinutes > 60 {
		recs = append(recs, "Average dwell exceeds an hour across multiple zones; worth checking whether a zone is becoming a bottleneck.")
	}

	return recs
}

func activeChannels(byChannel map[Channel]int) int {
	n := 0
	for _, count := range byChannel {
		if count > 0 {
			n++
		}
	}
	return n
}

// topChannel picks the busiest channel; ties resolve in declaration order of
// Channels so the result is deterministic.
func topChannel(byChannel map[Channel]int) (Channel, int) {
	var top Channel
	best := -1
	for _, c := range Channels {
		if count := byChannel[c]; count > best {
			top, best = c, count
		}
	}
	return top, best
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
