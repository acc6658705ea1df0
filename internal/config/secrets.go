package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Secrets holds credentials sourced from the environment. They are kept out
// of the YAML config so the config file can be committed or shared.
type Secrets struct {
	// GridUsername / GridPassword log into the scheduling viewer.
	GridUsername string
	GridPassword string

	// ServiceAccountJSON is the raw Google service-account key JSON.
	ServiceAccountJSON string

	// FeedURL optionally overrides the config feed_url for setups that
	// treat the subscription URL (which embeds a token) as a secret.
	FeedURL string

	// SMTPPassword authenticates the notification sender.
	SMTPPassword string
}

// LoadSecrets reads secrets from the environment, first loading a .env file
// from the working directory if one exists.
func LoadSecrets() (Secrets, error) {
	// Missing .env is fine; explicit env vars win either way.
	_ = godotenv.Load()

	s := Secrets{
		GridUsername:       os.Getenv("SHIFTSYNC_GRID_USERNAME"),
		GridPassword:       os.Getenv("SHIFTSYNC_GRID_PASSWORD"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		FeedURL:            os.Getenv("SHIFTSYNC_FEED_URL"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
	}

	if s.GridUsername == "" || s.GridPassword == "" {
		return s, errors.New("SHIFTSYNC_GRID_USERNAME and SHIFTSYNC_GRID_PASSWORD must be set")
	}

	return s, nil
}
