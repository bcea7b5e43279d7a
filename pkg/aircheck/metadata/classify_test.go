package metadata

import (
	"math/rand"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
)

func artworkURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("http://assets.example.com/art.jpg")
	if err != nil {
		t.Fatalf("parse artwork url: %v", err)
	}
	return u
}

func musicInfo(t *testing.T) *SegmentInfo {
	t.Helper()
	return &SegmentInfo{
		Title:       "Song",
		Artist:      "Artist",
		SongSpot:    'M',
		MediaBaseID: 1187579,
		ArtworkURL:  artworkURL(t),
		Length:      3*time.Minute + 32*time.Second,
	}
}

func talkInfo() *SegmentInfo {
	return &SegmentInfo{
		Title:    "Morning Show",
		Artist:   "KOST 103.5",
		SongSpot: 'T',
	}
}

func adInfo() *SegmentInfo {
	id := uuid.New()
	return &SegmentInfo{
		Title:          "Spot Break",
		Artist:         "Various",
		SongSpot:       'F',
		AMGTrackID:     -1,
		UnsID:          -1,
		Length:         2*time.Minute + 3*time.Second,
		SpotInstanceID: &id,
	}
}

func TestClassifyMusic(t *testing.T) {
	info := musicInfo(t)
	if got := info.Classify(); got != KindMusic {
		t.Errorf("Expected music, got %s", got)
	}

	// 'F' spots with catalog references also count as music.
	info.SongSpot = 'F'
	if got := info.Classify(); got != KindMusic {
		t.Errorf("Expected music for 'F' spot, got %s", got)
	}

	// Too short to be a full song, and no other rule matches.
	info = musicInfo(t)
	info.Length = 90 * time.Second
	if got := info.Classify(); got != KindUnknown {
		t.Errorf("Expected unknown for 90s segment, got %s", got)
	}

	// No catalog reference at all.
	info = musicInfo(t)
	info.MediaBaseID = 0
	info.ArtworkURL = nil
	if got := info.Classify(); got != KindUnknown {
		t.Errorf("Expected unknown without catalog references, got %s", got)
	}
}

func TestClassifyMusicCatalogAlternatives(t *testing.T) {
	base := func() *SegmentInfo {
		return &SegmentInfo{SongSpot: 'M', Length: 2 * time.Minute}
	}

	cases := []struct {
		name   string
		mutate func(*SegmentInfo)
	}{
		{"media base id", func(i *SegmentInfo) { i.MediaBaseID = 1 }},
		{"itunes track id", func(i *SegmentInfo) { i.ITunesTrackID = 1 }},
		{"amg artist and track", func(i *SegmentInfo) { i.AMGArtistID = 1; i.AMGTrackID = 1 }},
		{"tp id", func(i *SegmentInfo) { i.TPID = 1 }},
		{"artwork url", func(i *SegmentInfo) { i.ArtworkURL = artworkURL(t) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := base()
			if info.Classify() == KindMusic {
				t.Fatal("Base record must not classify as music")
			}
			tc.mutate(info)
			if got := info.Classify(); got != KindMusic {
				t.Errorf("Expected music, got %s", got)
			}
		})
	}

	// An AMG track id alone is not enough; the artist id must accompany it.
	info := base()
	info.AMGTrackID = 1
	if got := info.Classify(); got == KindMusic {
		t.Error("AMG track id without artist id must not classify as music")
	}
}

func TestClassifyTalk(t *testing.T) {
	if got := talkInfo().Classify(); got != KindTalk {
		t.Errorf("Expected talk, got %s", got)
	}
}

// Flipping any single required field away from its required value must
// change the classification away from talk.
func TestClassifyTalkFieldFlips(t *testing.T) {
	instance := uuid.New()
	flips := []struct {
		name   string
		mutate func(*SegmentInfo)
	}{
		{"song spot", func(i *SegmentInfo) { i.SongSpot = 'M' }},
		{"media base id", func(i *SegmentInfo) { i.MediaBaseID = 1 }},
		{"itunes track id", func(i *SegmentInfo) { i.ITunesTrackID = 1 }},
		{"amg artist id", func(i *SegmentInfo) { i.AMGArtistID = 1 }},
		{"amg track id", func(i *SegmentInfo) { i.AMGTrackID = 1 }},
		{"ta id", func(i *SegmentInfo) { i.TAID = 1 }},
		{"tp id", func(i *SegmentInfo) { i.TPID = 1 }},
		{"artwork url", func(i *SegmentInfo) { i.ArtworkURL = artworkURL(t) }},
		{"spot instance id", func(i *SegmentInfo) { i.SpotInstanceID = &instance }},
		{"length", func(i *SegmentInfo) { i.Length = time.Second }},
	}
	for _, tc := range flips {
		t.Run(tc.name, func(t *testing.T) {
			info := talkInfo()
			tc.mutate(info)
			if got := info.Classify(); got == KindTalk {
				t.Errorf("Flipping %s must change classification away from talk", tc.name)
			}
		})
	}
}

func TestClassifyAdvertisement(t *testing.T) {
	if got := adInfo().Classify(); got != KindAdvertisement {
		t.Errorf("Expected advertisement, got %s", got)
	}

	// Without the spot instance id the record is unclassifiable.
	info := adInfo()
	info.SpotInstanceID = nil
	if got := info.Classify(); got != KindUnknown {
		t.Errorf("Expected unknown without spot instance id, got %s", got)
	}
}

// The three positive predicates must be pairwise mutually exclusive for any
// field combination, not just the ones the encoder happens to emit.
func TestClassifyPredicatesMutuallyExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	instance := uuid.New()

	spots := []byte{'M', 'F', 'T', 'X'}
	ids := []int64{-1, 0, 1, 42}
	lengths := []time.Duration{0, 30 * time.Second, 90 * time.Second, 91 * time.Second, 2 * time.Hour}

	for i := 0; i < 20000; i++ {
		info := &SegmentInfo{
			SongSpot:      spots[rng.Intn(len(spots))],
			MediaBaseID:   ids[rng.Intn(len(ids))],
			ITunesTrackID: ids[rng.Intn(len(ids))],
			AMGTrackID:    ids[rng.Intn(len(ids))],
			AMGArtistID:   ids[rng.Intn(len(ids))],
			TAID:          ids[rng.Intn(len(ids))],
			TPID:          ids[rng.Intn(len(ids))],
			CartcutID:     ids[rng.Intn(len(ids))],
			UnsID:         ids[rng.Intn(len(ids))],
			Length:        lengths[rng.Intn(len(lengths))],
		}
		if rng.Intn(2) == 0 {
			info.ArtworkURL = artworkURL(t)
		}
		if rng.Intn(2) == 0 {
			info.SpotInstanceID = &instance
		}

		positives := 0
		if info.IsMusic() {
			positives++
		}
		if info.IsTalk() {
			positives++
		}
		if info.IsAdvertisement() {
			positives++
		}
		if positives > 1 {
			t.Fatalf("Record satisfies %d predicates at once: %+v", positives, info)
		}
	}
}

func TestContentKindString(t *testing.T) {
	cases := map[ContentKind]string{
		KindUnknown:       "unknown",
		KindTalk:          "talk",
		KindAdvertisement: "advertisement",
		KindMusic:         "music",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
