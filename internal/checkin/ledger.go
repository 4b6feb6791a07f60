package checkin

import (
	"errors"
	"log"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/utils"
)

// ErrWindowRequired is returned by SessionsInRange when the caller leaves the
// time window open; unbounded scans are not part of the ledger's contract.
var ErrWindowRequired = errors.New("checkin: sessions query requires a [from, to) window")

// Ledger owns check-in record identity and the at-most-one-checkout
// invariant. Nothing else writes checked_out_at.
type Ledger struct {
	store Store
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// RecordCheckIn persists an already-resolved check-in. Resolution and
// validation happened upstream; this only mints identity and the timestamp.
func (l *Ledger) RecordCheckIn(res Resolved) (Record, error) {
	rec := Record{
		ID:          utils.GenerateUUID(),
		SiteID:      res.SiteID,
		ZoneID:      res.ZoneID,
		UserID:      res.UserID,
		Channel:     res.Channel,
		CheckedInAt: l.now(),
		Metadata:    res.Metadata,
	}
	if err := l.store.Insert(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecordCheckOut closes an active session. Exactly one of any concurrent
// callers gets true; a second call, or an unknown id, gets false. The two
// false cases are collapsed in the contract but logged apart.
func (l *Ledger) RecordCheckOut(id string) (bool, error) {
	ok, err := l.store.CompareAndSetCheckout(id, l.now())
	if err != nil {
		return false, err
	}
	if !ok {
		log.Printf("[ledger] checkout no-op id=%s (unknown or already closed)", id)
	}
	return ok, nil
}

// ActiveSessions lists open sessions, newest last, optionally scoped to a
// site.
func (l *Ledger) ActiveSessions(siteID string) ([]Record, error) {
	return l.store.Query(Filter{SiteID: siteID, ActiveOnly: true})
}

// SessionsInRange is the single read path the aggregation components use.
func (l *Ledger) SessionsInRange(f Filter) ([]Record, error) {
	if f.From.IsZero() || f.To.IsZero() {
		return nil, ErrWindowRequired
	}
	return l.store.Query(f)
}
