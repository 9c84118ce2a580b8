package templates

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/config"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

func testLogger() logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"pbi":          "pbi_template.txt",
		"product_goal": "product_goal_template.txt",
		"po_review":    "po_review_template.txt",
	}
	bodies := map[string]string{
		"pbi_template.txt":          "# Product Backlog Item\n## Description\n## Acceptance Criteria",
		"product_goal_template.txt": "# Product Goal\n## Outcome\n## Measures",
		"po_review_template.txt":    "# PO Review\n## Findings\n## Recommendations",
	}
	for name, body := range bodies {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("failed to write template %s: %v", name, err)
		}
	}

	return NewFileStore(config.TemplatesConfig{Dir: dir, Files: files}, testLogger())
}

func TestFileStore_Resolve(t *testing.T) {
	store := testStore(t)

	tests := []struct {
		key      string
		expected domain.TemplateKey
	}{
		{"pbi", domain.TemplatePBI},
		{"product_goal", domain.TemplateProductGoal},
		{"po_review", domain.TemplatePOReview},
		{"", domain.TemplatePBI},
		{"nonsense", domain.TemplatePBI},
		{"PBI", domain.TemplatePBI}, // keys are case-sensitive, falls back
	}

	for _, tt := range tests {
		t.Run("key_"+tt.key, func(t *testing.T) {
			if got := store.Resolve(tt.key); got != tt.expected {
				t.Errorf("Resolve(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestFileStore_Compose(t *testing.T) {
	store := testStore(t)

	composed, err := store.Compose(domain.TemplatePBI, "add login feature")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if !strings.HasPrefix(composed, "Using the following template:\n---\n") {
		t.Errorf("composed prompt missing leading wrapper: %q", composed)
	}
	if !strings.Contains(composed, "# Product Backlog Item") {
		t.Errorf("composed prompt missing template body: %q", composed)
	}
	if !strings.Contains(composed, "Fill in the details based on this information:\n---\nadd login feature\n---") {
		t.Errorf("composed prompt missing verbatim user text: %q", composed)
	}
}

func TestFileStore_ComposeEmbedsPromptVerbatim(t *testing.T) {
	store := testStore(t)

	// no escaping; caller text passes through untouched
	hostile := `{"pbi": "<script>alert('x')</script>"} --- trailing`
	composed, err := store.Compose(domain.TemplateProductGoal, hostile)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.Contains(composed, hostile) {
		t.Errorf("user prompt was not embedded verbatim: %q", composed)
	}
}

func TestFileStore_ComposeMissingFile(t *testing.T) {
	store := NewFileStore(config.TemplatesConfig{
		Dir:   t.TempDir(),
		Files: map[string]string{"pbi": "gone.txt"},
	}, testLogger())

	_, err := store.Compose(domain.TemplatePBI, "anything")
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestFileStore_ComposeUnconfiguredKey(t *testing.T) {
	store := NewFileStore(config.TemplatesConfig{
		Dir:   t.TempDir(),
		Files: map[string]string{},
	}, testLogger())

	_, err := store.Compose(domain.TemplatePOReview, "anything")
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestFileStore_UpdateConfig(t *testing.T) {
	store := testStore(t)

	newDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(newDir, "alt.txt"), []byte("alt body"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	store.UpdateConfig(config.TemplatesConfig{
		Dir:   newDir,
		Files: map[string]string{"pbi": "alt.txt"},
	})

	composed, err := store.Compose(domain.TemplatePBI, "x")
	if err != nil {
		t.Fatalf("Compose after UpdateConfig failed: %v", err)
	}
	if !strings.Contains(composed, "alt body") {
		t.Errorf("expected reloaded template body, got %q", composed)
	}
}
