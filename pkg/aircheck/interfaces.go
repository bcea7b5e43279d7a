package aircheck

import (
	"context"
	"time"

	"github.com/himanishpuri/AirCheck/pkg/aircheck/emy"
	"github.com/himanishpuri/AirCheck/pkg/aircheck/storage"
)

// Fingerprinter is the external service deciding whether audio has been
// seen before. Query returns zero matches for unknown audio; Insert
// registers new audio under the given track identity.
type Fingerprinter interface {
	Query(ctx context.Context, filename string, audio []byte) ([]emy.Match, error)
	Insert(ctx context.Context, track emy.Track, filename string, audio []byte) error
}

// Downloader fetches one segment's raw bytes and reported content type.
type Downloader interface {
	Download(ctx context.Context, uri string) (contentType string, data []byte, err error)
}

// AudioStore persists raw captured audio keyed by identifier.
type AudioStore interface {
	Insert(id, format string, data []byte) error
	Get(id string) (format string, data []byte, err error)
}

// MetadataStore persists per-audio descriptive metadata, 1:1 with AudioStore.
type MetadataStore interface {
	Insert(id string, createdAt time.Time, kind, artist, title string) error
	Get(id string) (*storage.Metadata, error)
}

// MatchStore is the append-only recognition log.
type MatchStore interface {
	Append(matchedID string, matchedAt time.Time, score float64) error
}

// Logger is the minimal logging surface the service needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
