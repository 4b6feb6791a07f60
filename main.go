package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/PresencePoint/PP-Backend/internal/auth"
	"github.com/PresencePoint/PP-Backend/internal/checkin"
	"github.com/PresencePoint/PP-Backend/internal/config"
	"github.com/PresencePoint/PP-Backend/internal/db"
	"github.com/PresencePoint/PP-Backend/internal/directory"
	"github.com/PresencePoint/PP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db.Connect()

	auth.Init()
	directory.Init()
	checkin.Init(cfg)

	limiter := middleware.NewRateLimiter(cfg.CheckinRatePerSecond, cfg.CheckinBurst)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/directory", directory.SetupRoutes())
	r.Mount("/presence", checkin.SetupRoutes(limiter))

	fmt.Println("Server listening on port :" + cfg.Port + "...")

	http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
}
