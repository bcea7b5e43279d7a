// Package aircheck records a live audio broadcast: it polls the stream's
// manifest, classifies newly listed segments from their embedded metadata,
// downloads them, and deduplicates the audio against an external
// fingerprint service. Only genuinely new audio is stored; recognitions of
// known audio accumulate in an append-only match log.
package aircheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/himanishpuri/AirCheck/pkg/aircheck/emy"
	"github.com/himanishpuri/AirCheck/pkg/aircheck/metadata"
	"github.com/himanishpuri/AirCheck/pkg/aircheck/playlist"
	"github.com/himanishpuri/AirCheck/pkg/aircheck/storage"
	"github.com/himanishpuri/AirCheck/pkg/logger"
)

// DownloadCandidate is one segment that passed filtering and
// classification and is ready for download and dedup.
type DownloadCandidate struct {
	Number uint64
	URI    string
	Artist string
	Title  string
	Kind   metadata.ContentKind
}

// Service wires the poll loop, downloader, fingerprint gateway, and the
// three persistence stores into the per-segment ingestion workflow.
type Service struct {
	playlists  *playlist.Client
	downloader Downloader
	gateway    Fingerprinter

	audio   AudioStore
	meta    MetadataStore
	matches MatchStore

	filter  *SegmentFilter
	log     Logger
	closers []io.Closer
}

// NewService builds a service from options. Stores not injected through
// WithStores are opened (and created if needed) under the data directory;
// a store that cannot be opened fails construction.
func NewService(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Fingerprinter == nil {
		cfg.Fingerprinter = emy.NewClient(cfg.EmyURL, cfg.EmyAPIKey, cfg.HTTPClient)
	}
	if cfg.Downloader == nil {
		cfg.Downloader = newHTTPDownloader(cfg.HTTPClient)
	}

	svc := &Service{
		playlists:  playlist.NewClient(cfg.HTTPClient),
		downloader: cfg.Downloader,
		gateway:    cfg.Fingerprinter,
		audio:      cfg.AudioStore,
		meta:       cfg.MetadataStore,
		matches:    cfg.MatchStore,
		filter:     NewSegmentFilter(),
		log:        cfg.Logger,
	}

	if svc.audio == nil {
		store, err := storage.OpenAudioStore(cfg.audioDBPath())
		if err != nil {
			return nil, fmt.Errorf("open audio store: %w", err)
		}
		svc.audio = store
		svc.closers = append(svc.closers, store)
	}
	if svc.meta == nil {
		store, err := storage.OpenMetadataStore(cfg.metadataDBPath())
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("open metadata store: %w", err)
		}
		svc.meta = store
		svc.closers = append(svc.closers, store)
	}
	if svc.matches == nil {
		store, err := storage.OpenMatchStore(cfg.matchesDBPath())
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("open matches store: %w", err)
		}
		svc.matches = store
		svc.closers = append(svc.closers, store)
	}

	return svc, nil
}

// Close releases the stores the service opened itself.
func (s *Service) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// Process runs the dedup decision workflow for one candidate: download,
// fingerprint query, then either a new insert or match-log appends. Every
// failure is contained to this segment; Process never aborts the cycle.
func (s *Service) Process(ctx context.Context, cand DownloadCandidate) {
	contentType, data, err := s.downloader.Download(ctx, cand.URI)
	if err != nil {
		s.log.Errorf("Segment#%d download failed: %v", cand.Number, err)
		return
	}
	s.log.Debugf("Segment#%d downloaded %s, content type %q",
		cand.Number, humanize.Bytes(uint64(len(data))), contentType)

	s.probeTags(cand.Number, data)

	label := buildLabel(time.Now().UTC(), cand)
	results, err := s.gateway.Query(ctx, label, data)
	if err != nil {
		s.log.Errorf("Segment#%d fingerprint query failed: %v", cand.Number, err)
		return
	}

	if len(results) == 0 {
		s.insertNew(ctx, cand, label, contentType, data)
		return
	}
	s.recordMatches(cand, results)
}

// insertNew registers never-seen audio with the fingerprint service and
// persists the audio and metadata rows under a fresh identifier. The
// gateway insert and the local writes are independent side effects; a
// metadata failure after the audio write leaves an orphan audio row, which
// is accepted and only logged.
func (s *Service) insertNew(ctx context.Context, cand DownloadCandidate, label, contentType string, data []byte) {
	id := uuid.NewString()
	s.log.Infof("Insert new audio segment `%s`/`%s` %s", cand.Artist, cand.Title, id)

	track := emy.Track{ID: id, Artist: cand.Artist, Title: cand.Title}
	if err := s.gateway.Insert(ctx, track, label, data); err != nil {
		// Skip local persistence too, so a later sighting of the same
		// audio can retry the registration from scratch.
		s.log.Errorf("Segment#%d fingerprint insert failed: %v", cand.Number, err)
		return
	}

	if err := s.audio.Insert(id, formatFromContentType(contentType), data); err != nil {
		s.log.Errorf("Segment#%d insert audio: %v", cand.Number, err)
		return
	}
	if err := s.meta.Insert(id, time.Now().UTC(), cand.Kind.String(), cand.Artist, cand.Title); err != nil {
		s.log.Errorf("Segment#%d insert metadata (audio row %s is now orphaned): %v", cand.Number, id, err)
	}
}

// recordMatches appends one match-log row per reported recognition.
func (s *Service) recordMatches(cand DownloadCandidate, results []emy.Match) {
	now := time.Now().UTC()
	for _, m := range results {
		s.log.Infof("`%s`/`%s` matches %s `%s`/`%s` %.2f",
			cand.Artist, cand.Title, m.ID, m.Artist, m.Title, m.Score)

		if meta, err := s.meta.Get(m.ID); err == nil {
			s.log.Debugf("matched audio stored %s kind=%s", meta.CreatedAt.Format(time.RFC3339), meta.Kind)
		}

		if err := s.matches.Append(m.ID, now, m.Score); err != nil {
			s.log.Errorf("Segment#%d append match %s: %v", cand.Number, m.ID, err)
		}
	}
}

// probeTags logs any embedded audio tags. Observability only: failures are
// expected for raw AAC segments and contribute nothing to the data model.
func (s *Service) probeTags(number uint64, data []byte) {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		s.log.Debugf("Segment#%d no readable tags: %v", number, err)
		return
	}
	s.log.Infof("Segment#%d tags: format=%s title=%q artist=%q album=%q",
		number, meta.Format(), meta.Title(), meta.Artist(), meta.Album())
}

// buildLabel builds the human-readable correlation string handed to the
// fingerprint service. It is never used as a storage key.
func buildLabel(now time.Time, cand DownloadCandidate) string {
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		now.Format("2006-01-02_15-04-05"),
		cand.Kind,
		cand.Artist,
		cand.Title,
		lastPathSegment(cand.URI),
	)
}

func lastPathSegment(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "unknown"
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "unknown"
	}
	return last
}

// formatFromContentType maps a segment's content type to the stored
// format tag.
func formatFromContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "audio/aac"):
		return "aac"
	case strings.HasPrefix(contentType, "audio/mpeg"):
		return "mp3"
	default:
		return contentType
	}
}
