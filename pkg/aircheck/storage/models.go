package storage

import "time"

// Audio is one captured segment's raw bytes. Rows are written once when the
// fingerprint service reports no match and never updated afterwards.
type Audio struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	Format string `gorm:"not null"`
	Bytes  []byte `gorm:"type:blob;not null"`
}

func (Audio) TableName() string { return "audio" }

// Metadata describes a stored Audio row, keyed by the same identifier.
type Metadata struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
	Kind      string `gorm:"not null"`
	Artist    string
	Title     string
}

func (Metadata) TableName() string { return "metadata" }

// Match is one recognition of already-known audio. The table is append-only
// and carries no uniqueness constraint: repeated plays of the same audio
// accumulate as distinct rows, forming the play-history log.
type Match struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	MatchedID string `gorm:"type:varchar(36);index:idx_matched_id"`
	MatchedAt time.Time
	Score     float64
}

func (Match) TableName() string { return "matches" }
