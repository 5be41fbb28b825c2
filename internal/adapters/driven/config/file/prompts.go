package file

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt defaults/README.md
var defaults embed.FS

// ErrUnknownPrompt is returned by Load for a name grimoire never asks for.
var ErrUnknownPrompt = errors.New("unknown prompt")

// placeholders is the number of %s arguments each prompt is rendered with.
var placeholders = map[string]int{
	driven.PromptAnswerSystem:    1,
	driven.PromptCodeSystem:      1,
	driven.PromptValidateExplain: 4,
}

// PromptStore serves prompt templates from a directory of .txt files that
// users may edit. Missing files are written from the built-in defaults the
// first time a prompt is loaded. A file whose placeholders do not match what
// the caller passes is ignored in favour of the default.
type PromptStore struct {
	dir      string
	initOnce sync.Once
	initErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore creates a prompt store over dir, defaulting to
// ~/.grimoire/prompts. Nothing is touched on disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".grimoire", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	want, known := placeholders[name]
	if !known {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}

	s.initOnce.Do(s.writeDefaults)

	s.mu.Lock()
	defer s.mu.Unlock()
	if tmpl, ok := s.cache[name]; ok {
		return tmpl, nil
	}

	tmpl := s.read(name, want)
	s.cache[name] = tmpl
	return tmpl, nil
}

// Reload forgets cached templates so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// read returns the user's template for name, or the default when the file is
// unreadable or has the wrong placeholders.
func (s *PromptStore) read(name string, want int) string {
	if s.initErr != nil {
		return defaultPrompt(name)
	}
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Reading prompt %s: %v", path, err)
		}
		return defaultPrompt(name)
	}
	tmpl := strings.TrimSpace(string(data))
	if got, ok := countPlaceholders(tmpl); !ok || got != want {
		logger.Warn("Ignoring %s: it must contain exactly %d %%s placeholder(s) and no other %% verbs", path, want)
		return defaultPrompt(name)
	}
	return tmpl
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// writeDefaults creates the directory and any missing prompt files. Files
// that already exist are left alone.
func (s *PromptStore) writeDefaults() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Using built-in prompts: %v", s.initErr)
		return
	}

	files := []string{"README.md"}
	for name := range placeholders {
		files = append(files, name+".txt")
	}
	for _, f := range files {
		path := filepath.Join(s.dir, f)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		data, err := defaults.ReadFile("defaults/" + f)
		if err != nil {
			s.initErr = err
			return
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %s: %w", f, err)
			logger.Warn("Using built-in prompts: %v", s.initErr)
			return
		}
	}
}

// defaultPrompt returns the built-in template for name.
func defaultPrompt(name string) string {
	data, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// countPlaceholders counts %s verbs in tmpl. It reports false when tmpl has
// any other verb, which fmt would render as garbage. %% is a literal percent.
func countPlaceholders(tmpl string) (int, bool) {
	n := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 == len(tmpl) {
			return n, false
		}
		i++
		switch tmpl[i] {
		case 's':
			n++
		case '%':
		default:
			return n, false
		}
	}
	return n, true
}
