// Package diagrams persists the draw.io diagrams candidates submit in the
// design rounds.
package diagrams

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/interview-coach/internal/models"
)

// ErrNotFound is returned when no diagram was saved for a round
var ErrNotFound = errors.New("no diagram found")

// Diagram is a saved diagram
type Diagram struct {
	Round   models.RoundType `json:"roundType"`
	XML     string           `json:"xml"`
	SavedAt time.Time        `json:"timestamp"`
}

// Repository stores one diagram per session and round. Saving again
// replaces the previous diagram.
type Repository interface {
	Save(ctx context.Context, sessionID string, d *Diagram) error
	Load(ctx context.Context, sessionID string, r models.RoundType) (*Diagram, error)
	List(ctx context.Context, sessionID string) ([]models.RoundType, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
