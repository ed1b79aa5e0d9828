package config

import (
	"log/slog"
	"os"
	"strings"
)

// User is one basic-auth principal. Secret is either a bcrypt hash
// (recognized by its $2 prefix) or a plaintext password for local use.
type User struct {
	Name   string
	Secret string
	Role   string
}

type Config struct {
	Port      string
	Env       string
	StaticDir string

	SpreadsheetID   string
	CredentialsFile string
	HeadersSheet    string

	// DividerAdjustedInsert switches the insert index arithmetic to the
	// divider-adjusted interpretation. Off by default; see DESIGN.md.
	DividerAdjustedInsert bool

	ReservationsDB string

	StorageProvider string
	CloudinaryURL   string

	DropboxAppKey       string
	DropboxAppSecret    string
	DropboxAccessToken  string
	DropboxRefreshToken string

	AviationStackKey string
	AviationStackURL string

	Users []User
}

func Load() Config {
	cfg := Config{
		Port:      getEnv("PORT", "3002"),
		Env:       getEnv("ENV", "development"),
		StaticDir: getEnv("STATIC_DIR", "../frontend"),

		SpreadsheetID:   os.Getenv("SHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		HeadersSheet:    getEnv("HEADERS_SHEET", "Headers"),

		DividerAdjustedInsert: getEnv("DIVIDER_ADJUSTED_INSERT", "false") == "true",

		ReservationsDB: getEnv("RESERVATIONS_DB", "reservations.db"),

		StorageProvider: getEnv("STORAGE_PROVIDER", "cloudinary"),
		CloudinaryURL:   os.Getenv("CLOUDINARY_URL"),

		DropboxAppKey:       os.Getenv("DROPBOX_APP_KEY"),
		DropboxAppSecret:    os.Getenv("DROPBOX_APP_SECRET"),
		DropboxAccessToken:  os.Getenv("DROPBOX_ACCESS_TOKEN"),
		DropboxRefreshToken: os.Getenv("DROPBOX_REFRESH_TOKEN"),

		AviationStackKey: os.Getenv("AVIATIONSTACK_KEY"),
		AviationStackURL: getEnv("AVIATIONSTACK_URL", "https://api.aviationstack.com"),

		Users: parseUsers(getEnv("AUTH_USERS", "")),
	}

	// Single-user fallback matching the original deployment's env scheme.
	if len(cfg.Users) == 0 {
		name := os.Getenv("BASIC_AUTH_USER")
		pass := os.Getenv("BASIC_AUTH_PASS")
		if name != "" {
			cfg.Users = []User{{Name: name, Secret: pass, Role: "admin"}}
		}
	}

	if cfg.Env == "production" && len(cfg.Users) == 0 {
		slog.Error("AUTH_USERS (or BASIC_AUTH_USER/PASS) must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// parseUsers parses "name:secret:role" triples separated by commas.
// Entries missing a role default to viewer; malformed entries are skipped.
func parseUsers(s string) []User {
	var users []User
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			slog.Warn("skipping malformed AUTH_USERS entry", "entry", entry)
			continue
		}
		u := User{Name: parts[0], Secret: parts[1], Role: "viewer"}
		if len(parts) == 3 && parts[2] != "" {
			u.Role = parts[2]
		}
		users = append(users, u)
	}
	return users
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
