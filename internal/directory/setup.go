package directory

import (
	"log"

	"github.com/PresencePoint/PP-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "directory"); err != nil {
		log.Fatal("Failed to ensure schema directory: ", err)
	}

	if err := db.DB.AutoMigrate(&Site{}, &Zone{}, &Beacon{}, &NfcTag{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
