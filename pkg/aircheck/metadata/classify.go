package metadata

import "time"

// ContentKind is the four-way classification assigned to a segment.
type ContentKind int

const (
	KindUnknown ContentKind = iota
	KindTalk
	KindAdvertisement
	KindMusic
)

func (k ContentKind) String() string {
	switch k {
	case KindTalk:
		return "talk"
	case KindAdvertisement:
		return "advertisement"
	case KindMusic:
		return "music"
	default:
		return "unknown"
	}
}

// minMusicLength is the shortest segment still considered a full song.
const minMusicLength = 90 * time.Second

// IsMusic reports whether the segment looks like a full song: a music spot
// code, a real running length, and at least one catalog reference.
func (info *SegmentInfo) IsMusic() bool {
	return (info.SongSpot == 'M' || info.SongSpot == 'F') &&
		info.Length > minMusicLength &&
		(info.MediaBaseID > 0 ||
			info.ITunesTrackID > 0 ||
			(info.AMGArtistID > 0 && info.AMGTrackID > 0) ||
			info.TPID > 0 ||
			info.ArtworkURL != nil)
}

// IsTalk reports whether the segment looks like live talk: a talk spot code
// with every identifier zeroed and no length.
// song_spot=T MediaBaseId=0 itunesTrackId=0 amgTrackId=0 amgArtistId=0
// TAID=0 TPID=0 amgArtworkURL="" length="00:00:00" spotInstanceId=-1
func (info *SegmentInfo) IsTalk() bool {
	return info.SongSpot == 'T' &&
		info.MediaBaseID == 0 &&
		info.ITunesTrackID == 0 &&
		info.AMGArtistID == 0 &&
		info.AMGTrackID == 0 &&
		info.TAID == 0 &&
		info.TPID == 0 &&
		info.ArtworkURL == nil &&
		info.SpotInstanceID == nil &&
		info.Length == 0
}

// IsAdvertisement reports whether the segment looks like a scheduled spot:
// zeroed identifiers except amgTrackId=-1, plus a spot instance id.
// song_spot=F MediaBaseId=0 itunesTrackId=0 amgTrackId="-1" amgArtistId="0"
// TAID="0" TPID="0" cartcutId="0" amgArtworkURL="null" unsID="-1"
// spotInstanceId="688d6785-f34c-35a8-3255-1a9dd167fbd2"
func (info *SegmentInfo) IsAdvertisement() bool {
	return info.SongSpot == 'F' &&
		info.MediaBaseID == 0 &&
		info.ITunesTrackID == 0 &&
		info.AMGArtistID == 0 &&
		info.AMGTrackID == -1 &&
		info.TAID == 0 &&
		info.TPID == 0 &&
		info.CartcutID == 0 &&
		info.ArtworkURL == nil &&
		info.SpotInstanceID != nil
}

// Classify maps a decoded record to its content kind. The music, talk, and
// advertisement predicates are mutually exclusive by their field
// constraints, so rule order only decides how the fallthrough reads.
func (info *SegmentInfo) Classify() ContentKind {
	if info.IsMusic() {
		return KindMusic
	}
	if info.IsTalk() {
		return KindTalk
	}
	if info.IsAdvertisement() {
		return KindAdvertisement
	}
	return KindUnknown
}
