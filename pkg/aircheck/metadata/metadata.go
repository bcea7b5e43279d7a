// Package metadata decodes the textual metadata a broadcast encoder embeds
// in HLS segment titles and classifies segments by probable content.
//
// Decoding and classification are separate stages: Decode extracts a typed
// SegmentInfo from the raw title text, Classify applies the content rules
// to an already-decoded record.
package metadata

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoMatch reports title text that does not follow the segment grammar.
// This is the normal case right after session start and on mid-stream
// metadata resets, so callers usually log it at debug level and move on.
var ErrNoMatch = errors.New("title text does not match segment metadata grammar")

// AdContextMarker appears in otherwise undecodable titles of inserted
// advertisement segments (`#EXTINF:10,offset=0,adContext=''`).
const AdContextMarker = "adContext="

// AdPlaceholder is used as both artist and title for segments recognized
// as advertisements only through AdContextMarker.
const AdPlaceholder = "Advertisement"

// SegmentInfo is the decoded form of a segment's embedded title text:
// a quoted title, a quoted artist, and a quoted field of escaped
// KEY=\"VALUE\" pairs carrying the broadcast automation identifiers.
type SegmentInfo struct {
	Title          string
	Artist         string
	SongSpot       byte // single-character spot code, e.g. 'M', 'F', 'T'
	MediaBaseID    int64
	ITunesTrackID  int64
	AMGTrackID     int64
	AMGArtistID    int64
	TAID           int64
	TPID           int64
	CartcutID      int64
	ArtworkURL     *url.URL // nil when missing or not an absolute URL
	Length         time.Duration
	UnsID          int64
	SpotInstanceID *uuid.UUID // nil when missing or not UUID-shaped
}

var segmentInfoRE = regexp.MustCompile(
	`(?:offset=\d+,)?title="(.+?)",artist="(.+?)",url="song_spot=\\"(\w)\\"` +
		` MediaBaseId=\\"(-?\d+)\\"` +
		` itunesTrackId=\\"(-?\d+)\\"` +
		` amgTrackId=\\"(-?\d+)\\"` +
		` amgArtistId=\\"(-?\d+)\\"` +
		` TAID=\\"(-?\d+)\\"` +
		` TPID=\\"(-?\d+)\\"` +
		` cartcutId=\\"(-?\d+)\\"` +
		` amgArtworkURL=\\"(.*?)\\"` +
		` length=\\"(\d\d:\d\d:\d\d)\\"` +
		` unsID=\\"(-?\d+)\\"` +
		` spotInstanceId=\\"(.+?)\\""`,
)

// Decode parses segment title text into a SegmentInfo. It returns ErrNoMatch
// when the text does not follow the grammar; any integer field that fails to
// parse makes the whole decode fail.
func Decode(text string) (*SegmentInfo, error) {
	caps := segmentInfoRE.FindStringSubmatch(text)
	if caps == nil {
		return nil, ErrNoMatch
	}

	info := &SegmentInfo{
		Title:    caps[1],
		Artist:   caps[2],
		SongSpot: caps[3][0],
	}

	ids := []struct {
		dst  *int64
		name string
		raw  string
	}{
		{&info.MediaBaseID, "MediaBaseId", caps[4]},
		{&info.ITunesTrackID, "itunesTrackId", caps[5]},
		{&info.AMGTrackID, "amgTrackId", caps[6]},
		{&info.AMGArtistID, "amgArtistId", caps[7]},
		{&info.TAID, "TAID", caps[8]},
		{&info.TPID, "TPID", caps[9]},
		{&info.CartcutID, "cartcutId", caps[10]},
		{&info.UnsID, "unsID", caps[13]},
	}
	for _, field := range ids {
		v, err := strconv.ParseInt(field.raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", field.name, err)
		}
		*field.dst = v
	}

	info.ArtworkURL = parseArtworkURL(caps[11])

	length, err := parseClock(caps[12])
	if err != nil {
		return nil, fmt.Errorf("parse length: %w", err)
	}
	info.Length = length

	if id, err := uuid.Parse(caps[14]); err == nil {
		info.SpotInstanceID = &id
	}

	return info, nil
}

// parseArtworkURL returns nil unless the value is an absolute URL. The
// encoder writes "null" when no artwork exists.
func parseArtworkURL(value string) *url.URL {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// parseClock converts an HH:MM:SS value into a duration.
func parseClock(value string) (time.Duration, error) {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed clock value %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}
