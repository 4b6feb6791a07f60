package checkin

import (
	"log"

	"github.com/PresencePoint/PP-Backend/internal/cache"
	"github.com/PresencePoint/PP-Backend/internal/config"
	"github.com/PresencePoint/PP-Backend/internal/db"
	"github.com/PresencePoint/PP-Backend/internal/directory"
)

func Init(cfg config.Config) {
	if err := db.EnsureSchema(db.DB, "presence"); err != nil {
		log.Fatal("Failed to ensure schema presence: ", err)
	}

	if err := db.DB.AutoMigrate(&Record{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	engine = NewEngine(directory.Lookup{}, NewGormStore(db.DB))
	snapshots = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.OccupancyCacheTTL)
	defaultWindowDays = cfg.InsightWindowDays

	if snapshots == nil {
		log.Println("[presence] occupancy cache disabled (no REDIS_ADDR)")
	}
}
