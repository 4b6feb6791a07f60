// Command seed provisions a demo site with two zones (one polygon, one
// point), a beacon per scheme and an NFC tag, so a fresh deployment has
// something to check in to. Idempotent per run: a site named like the demo
// site is replaced when --confirm is given.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

var (
	dsn      = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	siteName = flag.String("site", "PresencePoint Demo Campus", "Name of the demo site")
	dryRun   = flag.Bool("dry-run", false, "Print the plan; no DB writes")
	confirm  = flag.Bool("confirm", false, "Required to replace an existing demo site")
)

const lobbyGeometry = `{"type":"Polygon","coordinates":[[[2.3500,48.8500],[2.3510,48.8500],[2.3510,48.8508],[2.3500,48.8508],[2.3500,48.8500]]]}`
const patioGeometry = `{"type":"Point","coordinates":[2.3515,48.8504]}`

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	if *dryRun {
		fmt.Printf("Would seed site %q with zones Lobby (polygon) and Patio (point),\n", *siteName)
		fmt.Println("one iBeacon, one Eddystone beacon, and one NFC tag. No changes made.")
		return
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var existingID string
	err = db.QueryRowContext(ctx,
		`SELECT id FROM directory.sites WHERE name = $1`, *siteName).Scan(&existingID)
	if err == nil {
		if !*confirm {
			fatalf("site %q already exists; re-run with --confirm to replace it", *siteName)
		}
		if err := deleteSite(ctx, db, existingID); err != nil {
			fatalf("delete existing demo site: %v", err)
		}
		fmt.Printf("Replaced existing demo site %s\n", existingID)
	} else if err != sql.ErrNoRows {
		fatalf("query existing site: %v", err)
	}

	if err := seed(ctx, db); err != nil {
		fatalf("seed: %v", err)
	}
	fmt.Println("Demo site seeded.")
}

func deleteSite(ctx context.Context, db *sql.DB, siteID string) error {
	for _, stmt := range []string{
		`DELETE FROM directory.beacons WHERE site_id = $1`,
		`DELETE FROM directory.nfc_tags WHERE site_id = $1`,
		`DELETE FROM directory.zones WHERE site_id = $1`,
		`DELETE FROM directory.sites WHERE id = $1`,
	} {
		if _, err := db.ExecContext(ctx, stmt, siteID); err != nil {
			return err
		}
	}
	return nil
}

func seed(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	siteID := uuid.NewString()
	lobbyID := uuid.NewString()
	patioID := uuid.NewString()

	channels := pq.StringArray{"geolocation", "qr", "ble", "nfc", "wifi_portal"}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO directory.sites (id, name, enabled_channels, created_at)
		 VALUES ($1, $2, $3, now())`,
		siteID, *siteName, channels); err != nil {
		return fmt.Errorf("insert site: %w", err)
	}

	zones := []struct {
		id, name, geometry string
		threshold          float64
	}{
		{lobbyID, "Lobby", lobbyGeometry, 50},
		{patioID, "Patio", patioGeometry, 30},
	}
	for _, z := range zones {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO directory.zones (id, site_id, name, geometry, accuracy_threshold_meters, created_at)
			 VALUES ($1, $2, $3, $4, $5, now())`,
			z.id, siteID, z.name, z.geometry, z.threshold); err != nil {
			return fmt.Errorf("insert zone %s: %w", z.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO directory.beacons (id, site_id, zone_id, proximity_uuid, major, minor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.NewString(), siteID, lobbyID,
		"f7826da6-4fa2-4e98-8024-bc5b71e0893e", 100, 1); err != nil {
		return fmt.Errorf("insert ibeacon: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO directory.beacons (id, site_id, zone_id, eddystone_uid, created_at)
		 VALUES ($1, $2, $3, $4, now())`,
		uuid.NewString(), siteID, patioID,
		"edd1ebeac04e5defa017"); err != nil {
		return fmt.Errorf("insert eddystone beacon: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO directory.nfc_tags (id, site_id, zone_id, tag_id, created_at)
		 VALUES ($1, $2, $3, $4, now())`,
		uuid.NewString(), siteID, lobbyID, "04:A2:2B:9C:51:80"); err != nil {
		return fmt.Errorf("insert nfc tag: %w", err)
	}

	return tx.Commit()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
