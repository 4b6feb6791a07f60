package checkin

import (
	"net/http"

	"github.com/PresencePoint/PP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the presence surface. The rate limiter only guards the
// inbound check-in path; reads and check-outs are cheap.
func SetupRoutes(limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/checkin", CheckInHandler)
	})

	r.Post("/checkin/{recordID}/checkout", CheckOutHandler)
	r.Get("/sites/{siteID}/occupancy", OccupancyHandler)
	r.Get("/sites/{siteID}/insights", InsightsHandler)
	r.Get("/sites/{siteID}/copresence", CoPresenceHandler)
	r.Get("/sites/{siteID}/sessions/active", ActiveSessionsHandler)

	return r
}
