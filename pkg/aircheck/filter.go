package aircheck

import "github.com/himanishpuri/AirCheck/pkg/aircheck/playlist"

// SegmentFilter gates which listed segments still need downloading. Its
// only state is a watermark: the highest sequence number ever accepted.
// Successive manifest fetches re-list recent segments, so without the
// watermark every cycle would reprocess the whole window.
//
// The filter runs before metadata decoding, which means a segment whose
// metadata later proves undecodable has still consumed its number and will
// never be offered again.
//
// Not safe for concurrent use; the poll loop calls it sequentially.
type SegmentFilter struct {
	lastSeen uint64
}

// NewSegmentFilter returns a filter that accepts any positive sequence number.
func NewSegmentFilter() *SegmentFilter {
	return &SegmentFilter{}
}

// NeedDownload reports whether seg has not been seen yet, advancing the
// watermark when it has not. Numbers at or below the watermark are
// rejected, so no sequence number is ever accepted twice.
func (f *SegmentFilter) NeedDownload(seg playlist.Segment) bool {
	if seg.Number <= f.lastSeen {
		return false
	}
	f.lastSeen = seg.Number
	return true
}
