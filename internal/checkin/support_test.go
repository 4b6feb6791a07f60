package checkin_test

import (
	"sort"
	"sync"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/checkin"
	"github.com/PresencePoint/PP-Backend/internal/directory"
	"github.com/lib/pq"
)

// fakeDirectory is an in-memory checkin.Directory for resolver/engine tests.
type fakeDirectory struct {
	sites   map[string]directory.Site
	zones   map[string]directory.Zone
	beacons []directory.Beacon
	tags    map[string]directory.NfcTag
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		sites: make(map[string]directory.Site),
		zones: make(map[string]directory.Zone),
		tags:  make(map[string]directory.NfcTag),
	}
}

func (d *fakeDirectory) addSite(id, name string, channels ...string) directory.Site {
	site := directory.Site{ID: id, Name: name, EnabledChannels: pq.StringArray(channels)}
	d.sites[id] = site
	return site
}

func (d *fakeDirectory) addZone(id, siteID, name, geometry string, threshold float64) directory.Zone {
	zone := directory.Zone{
		ID: id, SiteID: siteID, Name: name,
		Geometry:                []byte(geometry),
		AccuracyThresholdMeters: threshold,
	}
	d.zones[id] = zone
	return zone
}

func (d *fakeDirectory) SiteByID(id string) (directory.Site, error) {
	site, ok := d.sites[id]
	if !ok {
		return directory.Site{}, directory.ErrNotFound
	}
	return site, nil
}

func (d *fakeDirectory) ZoneByID(id string) (directory.Zone, error) {
	zone, ok := d.zones[id]
	if !ok {
		return directory.Zone{}, directory.ErrNotFound
	}
	return zone, nil
}

func (d *fakeDirectory) ZonesBySite(siteID string) ([]directory.Zone, error) {
	var zones []directory.Zone
	for _, z := range d.zones {
		if z.SiteID == siteID {
			zones = append(zones, z)
		}
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones, nil
}

func (d *fakeDirectory) BeaconByIdentity(proximityUUID string, major, minor int) (directory.Beacon, error) {
	for _, b := range d.beacons {
		if b.ProximityUUID == proximityUUID && b.Major != nil && *b.Major == major &&
			b.Minor != nil && *b.Minor == minor {
			return b, nil
		}
	}
	return directory.Beacon{}, directory.ErrNotFound
}

func (d *fakeDirectory) BeaconByEddystoneUID(uid string) (directory.Beacon, error) {
	for _, b := range d.beacons {
		if b.EddystoneUID == uid {
			return b, nil
		}
	}
	return directory.Beacon{}, directory.ErrNotFound
}

func (d *fakeDirectory) NfcTagByTagID(tagID string) (directory.NfcTag, error) {
	tag, ok := d.tags[tagID]
	if !ok {
		return directory.NfcTag{}, directory.ErrNotFound
	}
	return tag, nil
}

// memStore is an in-memory checkin.Store with the same compare-and-set
// semantics the SQL store gets from its conditional UPDATE.
type memStore struct {
	mu      sync.Mutex
	records map[string]*checkin.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*checkin.Record)}
}

func (s *memStore) Insert(rec *checkin.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *memStore) CompareAndSetCheckout(id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.CheckedOutAt != nil {
		return false, nil
	}
	stamp := at
	rec.CheckedOutAt = &stamp
	return true, nil
}

func (s *memStore) Query(f checkin.Filter) ([]checkin.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []checkin.Record
	for _, rec := range s.records {
		if f.SiteID != "" && rec.SiteID != f.SiteID {
			continue
		}
		if f.ZoneID != "" && (rec.ZoneID == nil || *rec.ZoneID != f.ZoneID) {
			continue
		}
		if f.UserID != "" && (rec.UserID == nil || *rec.UserID != f.UserID) {
			continue
		}
		if f.Channel != "" && rec.Channel != f.Channel {
			continue
		}
		if !f.From.IsZero() && rec.CheckedInAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !rec.CheckedInAt.Before(f.To) {
			continue
		}
		if f.ActiveOnly && rec.CheckedOutAt != nil {
			continue
		}
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CheckedInAt.Before(out[j].CheckedInAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// mutate lets a test rewrite a stored record's timestamps directly, e.g. to
// backdate a check-in.
func (s *memStore) mutate(id string, fn func(*checkin.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		fn(rec)
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 10, hour, minute, 0, 0, time.Local)
}

// squareZoneGeometry is a roughly 90m x 110m box used across tests.
const squareZoneGeometry = `{"type":"Polygon","coordinates":[[[2.3500,48.8500],[2.3512,48.8500],[2.3512,48.8508],[2.3500,48.8508],[2.3500,48.8500]]]}`
