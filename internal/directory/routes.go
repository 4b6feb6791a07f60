package directory

import (
	"net/http"

	"github.com/PresencePoint/PP-Backend/internal/auth"
	"github.com/PresencePoint/PP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	// Read surface: dashboards need these without admin rights.
	r.Get("/sites", ListSitesHandler)
	r.Get("/sites/{siteID}", GetSiteHandler)
	r.Get("/sites/{siteID}/zones", ListZonesHandler)
	r.Get("/zones/{zoneID}/qrcode", ZoneQRCodeHandler)

	// Mutation is admin-only.
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/sites", CreateSiteHandler)
		r.Patch("/sites/{siteID}/channels", UpdateSiteChannelsHandler)
		r.Post("/sites/{siteID}/zones", CreateZoneHandler)
		r.Delete("/zones/{zoneID}", DeleteZoneHandler)
		r.Post("/beacons", CreateBeaconHandler)
		r.Delete("/beacons/{beaconID}", DeleteBeaconHandler)
		r.Post("/tags", CreateNfcTagHandler)
		r.Delete("/tags/{tagID}", DeleteNfcTagHandler)
	})

	return r
}
