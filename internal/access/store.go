package access

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/gg/gslice"
	"gopkg.in/yaml.v3"
)

// Store is the durable side of the admission cache. Implementations live
// outside this package; FileStore below is the built-in one.
type Store interface {
	LoadAll(ctx context.Context) ([]Rule, error)
	Persist(ctx context.Context, rule Rule) error
	Delete(ctx context.Context, id string) error
}

// FileStore keeps rules in a single yaml file, rewritten atomically on every
// change. Good enough for a single-host deployment; database-backed stores
// plug in through the Store interface.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

func (s *FileStore) LoadAll(ctx context.Context) ([]Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *FileStore) Persist(ctx context.Context, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.readLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i, one := range rules {
		if one.ID == rule.ID {
			rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		rules = append(rules, rule)
	}

	return s.writeLocked(rules)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.readLocked()
	if err != nil {
		return err
	}

	next := gslice.Filter(rules, func(r Rule) bool { return r.ID != id })
	if len(next) == len(rules) {
		return fmt.Errorf("rule not found: %s", id)
	}

	return s.writeLocked(next)
}

func (s *FileStore) readLocked() ([]Rule, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	return file.Rules, nil
}

func (s *FileStore) writeLocked(rules []Rule) error {
	raw, err := yaml.Marshal(rulesFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp rules file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(raw); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp rules file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp rules file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace rules file: %w", err)
	}
	return nil
}
