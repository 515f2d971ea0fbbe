package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"estate/server/internal/models"
)

// FilterStore keeps the notification filters, optionally persisted to a
// JSON file.
type FilterStore struct {
	mu      sync.RWMutex
	path    string
	filters *models.TelegramFilters
}

// NewFilterStore loads the filters from path. A missing file yields an
// empty store; an empty path keeps the filters in memory only.
func NewFilterStore(path string) (*FilterStore, error) {
	s := &FilterStore{path: path}
	if path == "" {
		return s, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	s.path = absPath

	data, err := os.ReadFile(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read filters file: %w", err)
	}

	var filters models.TelegramFilters
	if err := json.Unmarshal(data, &filters); err != nil {
		return nil, fmt.Errorf("failed to parse filters file: %w", err)
	}
	s.filters = &filters
	return s, nil
}

// Get returns a copy of the current filters, or nil when none are set.
func (s *FilterStore) Get() *models.TelegramFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.filters == nil {
		return nil
	}
	out := &models.TelegramFilters{
		EventTypes: append([]models.EventType(nil), s.filters.EventTypes...),
	}
	if s.filters.MinPrice != nil {
		minPrice := *s.filters.MinPrice
		out.MinPrice = &minPrice
	}
	return out
}

// Update replaces the filters and writes them to the file, if any.
func (s *FilterStore) Update(filters models.TelegramFilters) error {
	if err := filters.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		data, err := json.MarshalIndent(filters, "", "    ")
		if err != nil {
			return fmt.Errorf("failed to marshal filters: %w", err)
		}
		if err := os.WriteFile(s.path, data, 0644); err != nil {
			return fmt.Errorf("failed to write filters file: %w", err)
		}
	}

	s.filters = &filters
	return nil
}
