package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sysalarm/internal/config"
	domain "sysalarm/internal/domain/alarm"
	"sysalarm/internal/logger"
)

// Repository defines persistence operations for the alarm rule set.
type Repository interface {
	Load(ctx context.Context) ([]domain.Rule, error)
	Save(ctx context.Context, rules []domain.Rule) error
}

// FileRepository persists alarm rules as a JSON list on disk, matching
// the flat-file format the console tooling edits by hand.
type FileRepository struct {
	// path is the filesystem location of the JSON rules file.
	path string
	// mu protects concurrent access to the rules file.
	mu sync.Mutex
}

// ErrCorrupt is returned when the rules file cannot be decoded as a rule list.
// Callers are expected to log it and continue with an empty set.
var ErrCorrupt = errors.New("alarm rules file is corrupt")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the rule list from disk. A missing file is not an error:
// an empty list is persisted so the store exists from first run onward.
// Entries that fail validation (a hand-edited file can hold anything)
// are dropped with a warning; only valid rules may reach the monitor.
func (r *FileRepository) Load(ctx context.Context) ([]domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if writeErr := r.write(nil); writeErr != nil {
				return nil, fmt.Errorf("initialise rules file: %w", writeErr)
			}

			return []domain.Rule{}, nil
		}

		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []domain.Rule
	if err = json.Unmarshal(contents, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	valid := rules[:0]

	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			logger.WarnKV(ctx, "Dropping invalid persisted alarm rule",
				"id", rules[i].ID, "error", err)

			continue
		}

		valid = append(valid, rules[i])
	}

	return valid, nil
}

// Save overwrites the persisted rule list.
func (r *FileRepository) Save(_ context.Context, rules []domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(rules)
}

// write marshals and stores the list. Callers hold r.mu.
func (r *FileRepository) write(rules []domain.Rule) error {
	if rules == nil {
		rules = []domain.Rule{}
	}

	data, err := json.MarshalIndent(rules, "", "    ")
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}

	return nil
}
