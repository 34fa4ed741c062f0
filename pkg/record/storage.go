package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"bit10-swap/pkg/types"
)

const (
	DefaultStorageFileName = ".bit10-swap-records.json"
)

// Storage mirrors settled swap records to a local JSON file. The settlement
// authority holds the canonical history; this copy backs the records command
// and survives without network access.
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*types.SwapRecord
}

// recordStorage represents the JSON structure for storage
type recordStorage struct {
	Records map[string]*types.SwapRecord `json:"records"`
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		// Default to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		records:  make(map[string]*types.SwapRecord),
	}

	// Load existing records if file exists
	if err := storage.load(); err != nil {
		// If file doesn't exist, that's okay - we'll create it on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load records: %w", err)
		}
	}

	return storage, nil
}

// load reads records from the storage file
func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var stored recordStorage
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal records: %w", err)
	}

	s.records = stored.Records
	if s.records == nil {
		s.records = make(map[string]*types.SwapRecord)
	}

	return nil
}

// saveLocked writes records to the storage file. Callers must hold mu.
func (s *Storage) saveLocked() error {
	stored := recordStorage{
		Records: s.records,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Save persists a settled record. Saving the same swap ID again is a no-op,
// so a retried settlement never duplicates history. Records arriving without
// a swap ID are assigned one locally.
func (s *Storage) Save(record *types.SwapRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.SwapID == "" {
		record.SwapID = uuid.NewString()
	}
	if _, exists := s.records[record.SwapID]; exists {
		return nil
	}

	s.records[record.SwapID] = record
	return s.saveLocked()
}

// Get retrieves a record by swap ID
func (s *Storage) Get(swapID string) (*types.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[swapID]
	if !exists {
		return nil, fmt.Errorf("record '%s' not found", swapID)
	}

	return record, nil
}

// List returns all records, most recent first
func (s *Storage) List() []*types.SwapRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*types.SwapRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TimestampNs > records[j].TimestampNs
	})

	return records
}

// ListByChain returns records filtered by source chain, most recent first
func (s *Storage) ListByChain(chain types.Chain) []*types.SwapRecord {
	records := s.List()

	filtered := make([]*types.SwapRecord, 0, len(records))
	for _, record := range records {
		if record.Network == chain {
			filtered = append(filtered, record)
		}
	}

	return filtered
}

// Count returns the total number of records
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}
