// Package templates resolves artifact template keys to their on-disk bodies
// and assembles the upstream prompt.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/config"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

// promptFormat is the fixed wrapper around the template body and the caller's
// text. The caller text is embedded verbatim; the template is a plain
// document skeleton, not a template language.
const promptFormat = "Using the following template:\n---\n%s\n---\nFill in the details based on this information:\n---\n%s\n---"

// FileStore maps template keys onto files under a configured directory.
// Bodies are read fresh per request so template edits land without a restart.
type FileStore struct {
	logger logger.StyledLogger
	mu     sync.RWMutex
	dir    string
	files  map[string]string
}

func NewFileStore(cfg config.TemplatesConfig, logger logger.StyledLogger) *FileStore {
	return &FileStore{
		dir:    cfg.Dir,
		files:  cfg.Files,
		logger: logger,
	}
}

// Resolve maps an arbitrary caller-supplied key onto a known template key.
// Anything unrecognised falls back to the default rather than erroring: the
// generation endpoint treats the template selector as a hint, not a contract.
func (s *FileStore) Resolve(key string) domain.TemplateKey {
	for _, known := range domain.KnownTemplateKeys {
		if key == string(known) {
			return known
		}
	}
	return domain.DefaultTemplateKey
}

// Compose reads the template body for key and wraps it with the user prompt.
// The only failure mode is domain.ErrTemplateNotFound.
func (s *FileStore) Compose(key domain.TemplateKey, userPrompt string) (string, error) {
	body, err := s.read(key)
	if err != nil {
		s.logger.Warn("template file unreadable", "template", string(key), "error", err)
		return "", fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, key)
	}
	return fmt.Sprintf(promptFormat, body, userPrompt), nil
}

func (s *FileStore) read(key domain.TemplateKey) (string, error) {
	s.mu.RLock()
	dir := s.dir
	name, ok := s.files[string(key)]
	s.mu.RUnlock()

	if !ok {
		return "", errors.New("no file configured for template key")
	}

	body, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// UpdateConfig swaps the template mapping on config reload
func (s *FileStore) UpdateConfig(cfg config.TemplatesConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = cfg.Dir
	s.files = cfg.Files
}
