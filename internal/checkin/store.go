package checkin

import (
	"time"

	"gorm.io/gorm"
)

// Store is the persistence the ledger needs: an insert, an atomic checkout
// compare-and-set, and one filtered range query. Aggregation recomputes from
// Query instead of maintaining read caches.
type Store interface {
	Insert(rec *Record) error
	CompareAndSetCheckout(id string, at time.Time) (bool, error)
	Query(f Filter) ([]Record, error)
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Insert(rec *Record) error {
	return s.db.Create(rec).Error
}

// CompareAndSetCheckout relies on the database for atomicity: the UPDATE
// matches only while checked_out_at is still null, so exactly one of any
// number of concurrent callers sees RowsAffected == 1.
func (s *gormStore) CompareAndSetCheckout(id string, at time.Time) (bool, error) {
	res := s.db.Model(&Record{}).
		Where("id = ? AND checked_out_at IS NULL", id).
		Update("checked_out_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) Query(f Filter) ([]Record, error) {
	q := s.db.Model(&Record{})

	if f.SiteID != "" {
		q = q.Where("site_id = ?", f.SiteID)
	}
	if f.ZoneID != "" {
		q = q.Where("zone_id = ?", f.ZoneID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	if !f.From.IsZero() {
		q = q.Where("checked_in_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("checked_in_at < ?", f.To)
	}
	if f.ActiveOnly {
		q = q.Where("checked_out_at IS NULL")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var records []Record
	err := q.Order("checked_in_at asc").Find(&records).Error
	return records, err
}
