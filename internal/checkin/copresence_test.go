package checkin_test

import (
	"testing"

	"github.com/PresencePoint/PP-Backend/internal/checkin"
	"github.com/PresencePoint/PP-Backend/internal/directory"
)

func lobbyZone() directory.Zone {
	return directory.Zone{ID: "z1", SiteID: "s1", Name: "Lobby"}
}

func TestComputeCoPresence_SweepOverlap(t *testing.T) {
	// A [09:00, 09:30), B [09:10, 09:20), C [09:25, 09:40): A+B overlap,
	// then A+C overlap, never all three.
	sessions := []checkin.Record{
		withUser(record("a", "z1", at(9, 0), closedAt(at(9, 30)), checkin.ChannelQR), "ua"),
		withUser(record("b", "z1", at(9, 10), closedAt(at(9, 20)), checkin.ChannelQR), "ub"),
		withUser(record("c", "z1", at(9, 25), closedAt(at(9, 40)), checkin.ChannelQR), "uc"),
	}

	stats := checkin.ComputeCoPresence(lobbyZone(), sessions, at(12, 0))
	if stats.MaxSimultaneous != 2 {
		t.Errorf("expected max 2 simultaneous, got %d", stats.MaxSimultaneous)
	}
	if stats.TotalCheckIns != 3 {
		t.Errorf("expected 3 total check-ins, got %d", stats.TotalCheckIns)
	}
	if stats.UniqueVisitors != 3 {
		t.Errorf("expected 3 unique visitors, got %d", stats.UniqueVisitors)
	}
	if stats.ZoneID != "z1" || stats.ZoneName != "Lobby" {
		t.Errorf("zone identity not carried: %+v", stats)
	}
}

// A check-out and a check-in at the same instant is a handover, not an
// overlap: the -1 event sorts first.
func TestComputeCoPresence_HandoverIsNotOverlap(t *testing.T) {
	sessions := []checkin.Record{
		withUser(record("a", "z1", at(9, 0), closedAt(at(9, 30)), checkin.ChannelQR), "ua"),
		withUser(record("b", "z1", at(9, 30), closedAt(at(10, 0)), checkin.ChannelQR), "ub"),
	}

	stats := checkin.ComputeCoPresence(lobbyZone(), sessions, at(12, 0))
	if stats.MaxSimultaneous != 1 {
		t.Errorf("back-to-back handover must not count as overlap, got max %d", stats.MaxSimultaneous)
	}
}

func TestComputeCoPresence_OpenSessionRunsToNow(t *testing.T) {
	sessions := []checkin.Record{
		withUser(record("a", "z1", at(9, 0), nil, checkin.ChannelQR), "ua"),
		withUser(record("b", "z1", at(11, 0), closedAt(at(11, 30)), checkin.ChannelQR), "ub"),
	}

	stats := checkin.ComputeCoPresence(lobbyZone(), sessions, at(12, 0))
	if stats.MaxSimultaneous != 2 {
		t.Errorf("open session should extend to now and overlap, got max %d", stats.MaxSimultaneous)
	}
}

func TestComputeCoPresence_AnonymousVisitorsCountSeparately(t *testing.T) {
	// Two anonymous sessions plus two by the same user: 4 check-ins, 3
	// distinct visitors.
	sessions := []checkin.Record{
		record("anon1", "z1", at(9, 0), closedAt(at(9, 10)), checkin.ChannelQR),
		record("anon2", "z1", at(9, 5), closedAt(at(9, 15)), checkin.ChannelQR),
		withUser(record("r1", "z1", at(10, 0), closedAt(at(10, 30)), checkin.ChannelQR), "repeat"),
		withUser(record("r2", "z1", at(11, 0), closedAt(at(11, 30)), checkin.ChannelQR), "repeat"),
	}

	stats := checkin.ComputeCoPresence(lobbyZone(), sessions, at(12, 0))
	if stats.TotalCheckIns != 4 {
		t.Errorf("expected 4 check-ins, got %d", stats.TotalCheckIns)
	}
	if stats.UniqueVisitors != 3 {
		t.Errorf("expected 3 unique visitors, got %d", stats.UniqueVisitors)
	}
}

func TestComputeCoPresence_SkipsCorruptStamps(t *testing.T) {
	sessions := []checkin.Record{
		record("bad", "z1", at(10, 0), closedAt(at(9, 0)), checkin.ChannelQR),
	}

	stats := checkin.ComputeCoPresence(lobbyZone(), sessions, at(12, 0))
	if stats.TotalCheckIns != 0 || stats.MaxSimultaneous != 0 || stats.UniqueVisitors != 0 {
		t.Errorf("checkout-before-checkin record must be ignored: %+v", stats)
	}
}

func withUser(r checkin.Record, userID string) checkin.Record {
	r.UserID = &userID
	return r
}
