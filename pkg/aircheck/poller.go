package aircheck

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/himanishpuri/AirCheck/pkg/aircheck/metadata"
	"github.com/himanishpuri/AirCheck/pkg/aircheck/playlist"
)

// Run polls the stream manifest until ctx is canceled or a manifest fetch
// fails. Each cycle filters never-seen segments, classifies them, drives
// the dedup workflow over the candidates strictly in listing order, then
// sleeps for half the manifest's target segment duration.
//
// A manifest fetch failure is fatal and returned; every per-segment
// failure is logged and survived.
func (s *Service) Run(ctx context.Context, streamURL *url.URL) error {
	s.log.Infof("Watching stream %s", streamURL)

	for {
		manifest, err := s.playlists.Fetch(ctx, streamURL)
		if err != nil {
			s.log.Errorf("Manifest fetch failed: %v", err)
			return err
		}
		s.log.Debugf("Received stream playlist, %d segments", len(manifest.Segments))

		for _, cand := range s.collectCandidates(manifest) {
			s.Process(ctx, cand)
		}

		sleep := manifest.TargetDuration / 2
		if sleep <= 0 {
			sleep = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// collectCandidates runs the segment filter and metadata classification
// over one manifest, in ascending sequence order. The filter runs first:
// a segment dropped later for undecodable metadata has still consumed its
// sequence number.
func (s *Service) collectCandidates(manifest *playlist.Manifest) []DownloadCandidate {
	var candidates []DownloadCandidate

	for _, seg := range manifest.Segments {
		if !s.filter.NeedDownload(seg) {
			continue
		}

		if _, err := url.ParseRequestURI(seg.URI); err != nil {
			s.log.Errorf("Segment#%d invalid url %s", seg.Number, seg.URI)
			continue
		}

		info, err := metadata.Decode(seg.Title)
		if err != nil {
			if !errors.Is(err, metadata.ErrNoMatch) {
				s.log.Warnf("Segment#%d metadata: %v", seg.Number, err)
			}
			// It could be an inserted advertisement:
			// #EXTINF:10,offset=0,adContext=''
			if strings.Contains(seg.Title, metadata.AdContextMarker) {
				s.log.Infof("Segment#%d DOWNLOAD: advertisement: title=%q", seg.Number, seg.Title)
				candidates = append(candidates, DownloadCandidate{
					Number: seg.Number,
					URI:    seg.URI,
					Artist: metadata.AdPlaceholder,
					Title:  metadata.AdPlaceholder,
					Kind:   metadata.KindAdvertisement,
				})
				continue
			}
			// Normal on session start and mid-stream metadata resets.
			s.log.Infof("Segment#%d SKIPPED: no segment info", seg.Number)
			s.log.Debugf("Segment#%d title=%q", seg.Number, seg.Title)
			continue
		}

		kind := info.Classify()
		switch kind {
		case metadata.KindUnknown:
			s.log.Infof("Segment#%d DOWNLOAD: unknown kind, artist=%s, title=%s", seg.Number, info.Artist, info.Title)
			s.log.Debugf("Segment#%d title=%q", seg.Number, seg.Title)
		default:
			s.log.Infof("Segment#%d DOWNLOAD: likely %s, artist: %s, title: %s", seg.Number, kind, info.Artist, info.Title)
		}

		candidates = append(candidates, DownloadCandidate{
			Number: seg.Number,
			URI:    seg.URI,
			Artist: info.Artist,
			Title:  info.Title,
			Kind:   kind,
		})
	}

	return candidates
}
