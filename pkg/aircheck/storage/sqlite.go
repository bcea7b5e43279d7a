// Package storage persists captured audio, its metadata, and the match log
// in three independently-keyed SQLite databases. The stores share no
// transactions: each write stands alone, and a partial failure across
// stores is the caller's problem to log.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrDuplicateID reports an insert under an identifier that already exists.
	ErrDuplicateID = errors.New("storage: duplicate id")
	// ErrNotFound reports a lookup of an identifier with no row.
	ErrNotFound = errors.New("storage: not found")
)

// dbClient wraps one sqlite database file.
type dbClient struct {
	orm *gorm.DB
	db  *sql.DB
}

const errClientNil = "storage client is nil"

func openDB(path string, models ...any) (*dbClient, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	orm, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db %s: %w", path, err)
	}

	db, err := orm.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := orm.AutoMigrate(models...); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate %s: %w", path, err)
	}

	return &dbClient{orm: orm, db: db}, nil
}

func (c *dbClient) close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func isConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// AudioStore holds raw segment audio keyed by identifier.
type AudioStore struct {
	client *dbClient
}

// OpenAudioStore opens (creating if needed) the audio database at path.
func OpenAudioStore(path string) (*AudioStore, error) {
	client, err := openDB(path, &Audio{})
	if err != nil {
		return nil, err
	}
	return &AudioStore{client: client}, nil
}

// Insert stores one immutable audio row. Inserting an existing id fails
// with ErrDuplicateID.
func (s *AudioStore) Insert(id, format string, data []byte) error {
	if s == nil || s.client == nil {
		return errors.New(errClientNil)
	}
	err := s.client.orm.Create(&Audio{ID: id, Format: format, Bytes: data}).Error
	if isConstraintError(err) {
		return fmt.Errorf("insert audio %s: %w", id, ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("insert audio %s: %w", id, err)
	}
	return nil
}

// Get returns the format tag and bytes stored under id, or ErrNotFound.
func (s *AudioStore) Get(id string) (string, []byte, error) {
	if s == nil || s.client == nil {
		return "", nil, errors.New(errClientNil)
	}
	var row Audio
	err := s.client.orm.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("get audio %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("get audio %s: %w", id, err)
	}
	return row.Format, row.Bytes, nil
}

// Close releases the underlying database connection.
func (s *AudioStore) Close() error {
	if s == nil {
		return nil
	}
	return s.client.close()
}

// MetadataStore holds per-audio descriptive metadata, 1:1 with AudioStore.
type MetadataStore struct {
	client *dbClient
}

// OpenMetadataStore opens (creating if needed) the metadata database at path.
func OpenMetadataStore(path string) (*MetadataStore, error) {
	client, err := openDB(path, &Metadata{})
	if err != nil {
		return nil, err
	}
	return &MetadataStore{client: client}, nil
}

// Insert stores the metadata row for a newly captured audio id.
func (s *MetadataStore) Insert(id string, createdAt time.Time, kind, artist, title string) error {
	if s == nil || s.client == nil {
		return errors.New(errClientNil)
	}
	row := Metadata{ID: id, CreatedAt: createdAt, Kind: kind, Artist: artist, Title: title}
	err := s.client.orm.Create(&row).Error
	if isConstraintError(err) {
		return fmt.Errorf("insert metadata %s: %w", id, ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("insert metadata %s: %w", id, err)
	}
	return nil
}

// Get returns the metadata row for id, or ErrNotFound.
func (s *MetadataStore) Get(id string) (*Metadata, error) {
	if s == nil || s.client == nil {
		return nil, errors.New(errClientNil)
	}
	var row Metadata
	err := s.client.orm.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get metadata %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata %s: %w", id, err)
	}
	return &row, nil
}

// Close releases the underlying database connection.
func (s *MetadataStore) Close() error {
	if s == nil {
		return nil
	}
	return s.client.close()
}

// MatchStore is the append-only recognition log. The matched id is not
// checked against the audio store; diagnostics resolve it best-effort.
type MatchStore struct {
	client *dbClient
}

// OpenMatchStore opens (creating if needed) the matches database at path.
func OpenMatchStore(path string) (*MatchStore, error) {
	client, err := openDB(path, &Match{})
	if err != nil {
		return nil, err
	}
	return &MatchStore{client: client}, nil
}

// Append records one recognition of matchedID at matchedAt with the score
// the fingerprint service reported.
func (s *MatchStore) Append(matchedID string, matchedAt time.Time, score float64) error {
	if s == nil || s.client == nil {
		return errors.New(errClientNil)
	}
	row := Match{MatchedID: matchedID, MatchedAt: matchedAt, Score: score}
	if err := s.client.orm.Create(&row).Error; err != nil {
		return fmt.Errorf("append match %s: %w", matchedID, err)
	}
	return nil
}

// ByMatchedID returns all recognitions of one audio id, oldest first.
func (s *MatchStore) ByMatchedID(matchedID string) ([]Match, error) {
	if s == nil || s.client == nil {
		return nil, errors.New(errClientNil)
	}
	var rows []Match
	if err := s.client.orm.Where("matched_id = ?", matchedID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query matches %s: %w", matchedID, err)
	}
	return rows, nil
}

// Close releases the underlying database connection.
func (s *MatchStore) Close() error {
	if s == nil {
		return nil
	}
	return s.client.close()
}
