// Package journal persists analysis verdicts so traders can review and
// grade past calls.
package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is one journaled analysis.
type Entry struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Symbol      string         `gorm:"index;size:32" json:"symbol"`
	Mode        string         `gorm:"size:16" json:"mode"`
	Judge       string         `gorm:"size:16" json:"judge,omitempty"`
	Verdict     string         `json:"verdict"`
	Transcript  string         `json:"transcript,omitempty"`
	Setup       datatypes.JSON `json:"setup,omitempty"`
	SetupError  string         `json:"setup_error,omitempty"`
	TotalTokens int            `json:"total_tokens"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (Entry) TableName() string { return "journal_entries" }

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("journal entry not found")

// Store wraps the SQLite journal database.
type Store struct {
	db *gorm.DB
}

// Open creates/migrates the journal database at path. WAL keeps reads
// cheap while analyses are being written.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating journal db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// List returns the newest entries first plus the total count for
// pagination.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Entry, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&Entry{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting journal entries: %w", err)
	}
	var entries []Entry
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing journal entries: %w", err)
	}
	return entries, total, nil
}

func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).First(&e, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("loading journal entry: %w", err)
	}
	return e, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
