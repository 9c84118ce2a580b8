// Package liveness decides whether the inference backend is considered
// reachable before a request spends anything on it. The verdict comes from a
// small status artifact maintained outside this process; the probe only ever
// reads it.
package liveness

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

const offlineToken = "offline"

// FileProbe reads a status file fresh on every check. The file is tiny and
// the read sits well inside the request latency budget, so there is no cache
// and no staleness window.
type FileProbe struct {
	logger logger.StyledLogger
	mu     sync.RWMutex
	path   string
}

func NewFileProbe(path string, logger logger.StyledLogger) *FileProbe {
	return &FileProbe{
		path:   path,
		logger: logger,
	}
}

// Check reports the current liveness verdict. A read failure is fail-open:
// the backend is assumed online and the failure is logged as a warning, never
// surfaced to the caller. The upstream client finds out the hard way if the
// assumption was wrong, and its diagnostics cover that path.
func (p *FileProbe) Check(ctx context.Context) domain.LivenessState {
	content, err := os.ReadFile(p.Path())
	if err != nil {
		p.logger.Warn("liveness status unreadable, assuming online", "path", p.Path(), "error", err)
		return domain.LivenessOnline
	}

	if strings.Contains(strings.ToLower(string(content)), offlineToken) {
		return domain.LivenessOffline
	}
	return domain.LivenessOnline
}

func (p *FileProbe) Path() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.path
}

// SetPath swaps the status file location on config reload
func (p *FileProbe) SetPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = path
}
