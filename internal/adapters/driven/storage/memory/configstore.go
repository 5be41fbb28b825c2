package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/grimoire/internal/adapters/driven/config/value"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings in memory with the same value conversions as
// the TOML store. Save and Load do nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a store seeded with dotted keys. Later seeds win.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, m := range seed {
		maps.Copy(s.values, m)
	}
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string { return value.String(s.raw(key)) }

func (s *ConfigStore) GetInt(key string) int { return value.Int(s.raw(key)) }

func (s *ConfigStore) GetFloat(key string) float64 { return value.Float(s.raw(key)) }

func (s *ConfigStore) GetBool(key string) bool { return value.Bool(s.raw(key)) }

func (s *ConfigStore) GetStringSlice(key string) []string { return value.Strings(s.raw(key)) }

func (s *ConfigStore) Set(key string, v any) error {
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Save() error { return nil }

func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }

func (s *ConfigStore) raw(key string) any {
	v, _ := s.Get(key)
	return v
}
