package aircheck

import (
	"math/rand"
	"testing"

	"github.com/himanishpuri/AirCheck/pkg/aircheck/playlist"
)

func seg(number uint64) playlist.Segment {
	return playlist.Segment{Number: number, URI: "seg.aac"}
}

func TestSegmentFilterAcceptsAscending(t *testing.T) {
	filter := NewSegmentFilter()

	for _, n := range []uint64{1, 2, 3, 7, 20} {
		if !filter.NeedDownload(seg(n)) {
			t.Errorf("Expected segment %d to be accepted", n)
		}
	}
}

func TestSegmentFilterRejectsRelisted(t *testing.T) {
	filter := NewSegmentFilter()

	// First fetch lists 5..7, the next fetch re-lists 6..8.
	for _, n := range []uint64{5, 6, 7} {
		if !filter.NeedDownload(seg(n)) {
			t.Fatalf("Expected segment %d to be accepted", n)
		}
	}
	for _, n := range []uint64{6, 7} {
		if filter.NeedDownload(seg(n)) {
			t.Errorf("Expected re-listed segment %d to be rejected", n)
		}
	}
	if !filter.NeedDownload(seg(8)) {
		t.Error("Expected segment 8 to be accepted")
	}
}

func TestSegmentFilterRejectsBelowWatermark(t *testing.T) {
	filter := NewSegmentFilter()

	if !filter.NeedDownload(seg(10)) {
		t.Fatal("Expected segment 10 to be accepted")
	}
	// 9 was never listed before, but the watermark has moved past it.
	if filter.NeedDownload(seg(9)) {
		t.Error("Expected segment 9 below the watermark to be rejected")
	}
}

func TestSegmentFilterNeverAcceptsTwice(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	filter := NewSegmentFilter()
	accepted := make(map[uint64]bool)
	watermark := uint64(0)

	// Simulated manifest fetches: windows that advance, stall, and
	// re-list earlier numbers.
	next := uint64(1)
	for fetch := 0; fetch < 200; fetch++ {
		start := next
		if start > 3 && rng.Intn(3) == 0 {
			start -= uint64(rng.Intn(3)) // re-list a suffix of the last window
		}
		window := uint64(rng.Intn(5) + 1)
		for n := start; n < start+window; n++ {
			if filter.NeedDownload(seg(n)) {
				if accepted[n] {
					t.Fatalf("Segment %d accepted twice", n)
				}
				if n <= watermark {
					t.Fatalf("Segment %d accepted at or below watermark %d", n, watermark)
				}
				accepted[n] = true
				watermark = n
			}
		}
		if start+window > next {
			next = start + window
		}
	}
}
