package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/himanishpuri/AirCheck/pkg/aircheck"
	"github.com/himanishpuri/AirCheck/pkg/logger"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: aircheck <stream-url>

Records a live HLS audio broadcast: new segments are classified from their
embedded metadata, downloaded, and deduplicated against the configured
fingerprint service.

Environment:
  AIRCHECK_DATA_DIR     directory for the sqlite databases (default ".")
  AIRCHECK_EMY_URL      fingerprint service base URL (default "http://localhost:3340")
  AIRCHECK_EMY_API_KEY  fingerprint service API key (optional)
  AIRCHECK_LOG_LEVEL    DEBUG, INFO, WARN or ERROR (default INFO)
`)
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) != 2 {
		printUsage()
		os.Exit(1)
	}

	streamURL, err := url.Parse(os.Args[1])
	if err != nil || streamURL.Scheme == "" || streamURL.Host == "" {
		log.Errorf("Invalid stream URL %q", os.Args[1])
		os.Exit(1)
	}

	service, err := aircheck.NewService(
		aircheck.WithDataDir(getEnvOrDefault("AIRCHECK_DATA_DIR", ".")),
		aircheck.WithEmyService(
			getEnvOrDefault("AIRCHECK_EMY_URL", "http://localhost:3340"),
			os.Getenv("AIRCHECK_EMY_API_KEY"),
		),
	)
	if err != nil {
		log.Errorf("Failed to create service: %v", err)
		os.Exit(1)
	}
	defer service.Close()

	if err := service.Run(context.Background(), streamURL); err != nil {
		log.Errorf("Stream watch stopped: %v", err)
		os.Exit(1)
	}
}
