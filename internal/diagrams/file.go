package diagrams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/terra-clan/interview-coach/internal/models"
)

const fileSuffix = "_diagram.json"

// FileRepository keeps diagrams as JSON files, one directory per session
type FileRepository struct {
	dir string
}

// NewFileRepository creates the base directory if needed
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create diagrams directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) sessionDir(sessionID string) string {
	return filepath.Join(r.dir, filepath.Base(sessionID))
}

func (r *FileRepository) Save(_ context.Context, sessionID string, d *Diagram) error {
	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diagram: %w", err)
	}

	path := filepath.Join(dir, string(d.Round)+fileSuffix)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write diagram: %w", err)
	}
	return nil
}

func (r *FileRepository) Load(_ context.Context, sessionID string, round models.RoundType) (*Diagram, error) {
	data, err := os.ReadFile(filepath.Join(r.sessionDir(sessionID), string(round)+fileSuffix))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read diagram: %w", err)
	}

	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode diagram: %w", err)
	}
	return &d, nil
}

func (r *FileRepository) List(_ context.Context, sessionID string) ([]models.RoundType, error) {
	entries, err := os.ReadDir(r.sessionDir(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return []models.RoundType{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}

	out := []models.RoundType{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, models.RoundType(strings.TrimSuffix(name, fileSuffix)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *FileRepository) HealthCheck(context.Context) error {
	_, err := os.Stat(r.dir)
	return err
}

func (r *FileRepository) Close() error { return nil }
