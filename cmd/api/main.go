package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/tripdesk/tripdesk-go/internal/cache"
	"github.com/tripdesk/tripdesk-go/internal/config"
	"github.com/tripdesk/tripdesk-go/internal/dropbox"
	"github.com/tripdesk/tripdesk-go/internal/flight"
	"github.com/tripdesk/tripdesk-go/internal/handler"
	"github.com/tripdesk/tripdesk-go/internal/itinerary"
	"github.com/tripdesk/tripdesk-go/internal/middleware"
	"github.com/tripdesk/tripdesk-go/internal/reservation"
	"github.com/tripdesk/tripdesk-go/internal/sheet"
	"github.com/tripdesk/tripdesk-go/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	tokens := dropbox.NewTokenManager(cfg.DropboxAppKey, cfg.DropboxAppSecret,
		cfg.DropboxAccessToken, cfg.DropboxRefreshToken)

	imageStore := newImageStore(cfg, tokens)
	flightClient := flight.NewClient(cfg.AviationStackURL, cfg.AviationStackKey)

	uploadHandler := handler.NewUploadHandler(imageStore)
	flightHandler := handler.NewFlightHandler(flightClient)
	dropboxHandler := handler.NewDropboxHandler(tokens)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3002"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Use(middleware.BasicAuth(cfg.Users, "Trip"))

		// Itinerary routes need the spreadsheet; without credentials the
		// rest of the API still comes up.
		store, err := sheet.NewGoogleStore(context.Background(), cfg.SpreadsheetID, cfg.CredentialsFile)
		if err != nil {
			slog.Warn("spreadsheet unavailable, itinerary routes disabled", "error", err)
		} else {
			engine := itinerary.New(store, cache.New(), itinerary.Options{
				HeadersSheet:          cfg.HeadersSheet,
				DividerAdjustedInsert: cfg.DividerAdjustedInsert,
			})
			itinHandler := handler.NewItineraryHandler(engine)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("view"))
				r.Get("/itinerary", itinHandler.HandleList)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("add"))
				r.Post("/itinerary/add", itinHandler.HandleAdd)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("edit"))
				r.Put("/itinerary/update", itinHandler.HandleUpdate)
				r.Put("/itinerary/visibility", itinHandler.HandleVisibility)
				r.Post("/itinerary/move", itinHandler.HandleMove)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("delete"))
				r.Delete("/itinerary/delete", itinHandler.HandleDelete)
			})
		}

		db, err := reservation.Open(cfg.ReservationsDB)
		if err != nil {
			slog.Warn("reservations database unavailable, reservation routes disabled", "error", err)
		} else {
			resHandler := handler.NewReservationHandler(reservation.NewService(db))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("view"))
				r.Get("/reservations", resHandler.HandleList)
				r.Get("/reservations/stats", resHandler.HandleStats)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("add"))
				r.Post("/reservations", resHandler.HandleCreate)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("edit"))
				r.Put("/reservations/{id}", resHandler.HandleUpdate)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require("delete"))
				r.Delete("/reservations/{id}", resHandler.HandleDelete)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require("view"))
			r.Get("/flight-status", flightHandler.HandleStatus)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.Require("edit"))
			r.Post("/upload-image", uploadHandler.HandleUpload)
			r.Delete("/upload-image/{public_id}", uploadHandler.HandleDelete)
			r.Get("/dropbox/status", dropboxHandler.HandleStatus)
		})
	})

	mountStatic(r, cfg.StaticDir)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// newImageStore picks the upload backend from STORAGE_PROVIDER. A
// misconfigured provider degrades to nil; uploads then return 500
// while the rest of the API keeps working.
func newImageStore(cfg config.Config, tokens *dropbox.TokenManager) storage.ImageStore {
	switch cfg.StorageProvider {
	case "dropbox":
		if !tokens.Configured() {
			slog.Warn("dropbox storage selected but DROPBOX_APP_KEY/SECRET missing, uploads disabled")
			return nil
		}
		return storage.NewDropbox(tokens)
	case "cloudinary":
		if cfg.CloudinaryURL == "" {
			slog.Warn("cloudinary storage selected but CLOUDINARY_URL missing, uploads disabled")
			return nil
		}
		store, err := storage.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			slog.Warn("cloudinary init failed, uploads disabled", "error", err)
			return nil
		}
		return store
	default:
		slog.Warn("unknown storage provider, uploads disabled", "provider", cfg.StorageProvider)
		return nil
	}
}

// mountStatic serves the built frontend, falling back to index.html so
// client-side routes resolve on refresh.
func mountStatic(r chi.Router, dir string) {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("static directory not found, frontend not served", "dir", dir)
		return
	}
	fs := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+req.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, req, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, req)
	})
}
