package aircheck

import (
	"net/http"
	"path/filepath"
)

// Config collects everything NewService needs. Zero values fall back to
// defaults; tests inject fakes through the With* options.
type Config struct {
	DataDir   string
	EmyURL    string
	EmyAPIKey string

	HTTPClient    *http.Client
	Logger        Logger
	Fingerprinter Fingerprinter
	Downloader    Downloader

	AudioStore    AudioStore
	MetadataStore MetadataStore
	MatchStore    MatchStore
}

type Option func(*Config)

// WithDataDir sets the directory holding the three sqlite database files.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithEmyService points the service at a fingerprint service instance.
func WithEmyService(baseURL, apiKey string) Option {
	return func(c *Config) {
		c.EmyURL = baseURL
		c.EmyAPIKey = apiKey
	}
}

// WithHTTPClient overrides the HTTP client used for manifest fetches,
// segment downloads, and fingerprint calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger overrides the default process logger.
func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithFingerprinter injects a fingerprint gateway, usually a fake in tests.
func WithFingerprinter(fp Fingerprinter) Option {
	return func(c *Config) {
		c.Fingerprinter = fp
	}
}

// WithDownloader injects a segment downloader.
func WithDownloader(d Downloader) Option {
	return func(c *Config) {
		c.Downloader = d
	}
}

// WithStores injects the three persistence stores.
func WithStores(audio AudioStore, meta MetadataStore, matches MatchStore) Option {
	return func(c *Config) {
		c.AudioStore = audio
		c.MetadataStore = meta
		c.MatchStore = matches
	}
}

func defaultConfig() *Config {
	return &Config{
		DataDir: ".",
		EmyURL:  "http://localhost:3340",
	}
}

func (c *Config) audioDBPath() string {
	return filepath.Join(c.DataDir, "audio.sqlite3")
}

func (c *Config) metadataDBPath() string {
	return filepath.Join(c.DataDir, "metadata.sqlite3")
}

func (c *Config) matchesDBPath() string {
	return filepath.Join(c.DataDir, "matches.sqlite3")
}
