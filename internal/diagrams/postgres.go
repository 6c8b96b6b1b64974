package diagrams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/terra-clan/interview-coach/internal/models"
)

const diagramsSchema = `
	CREATE TABLE IF NOT EXISTS diagrams (
		session_id VARCHAR(64) NOT NULL,
		round_type VARCHAR(32) NOT NULL,
		xml        TEXT NOT NULL,
		saved_at   TIMESTAMP WITH TIME ZONE NOT NULL,
		PRIMARY KEY (session_id, round_type)
	)
`

// PostgresRepository stores diagrams in PostgreSQL through database/sql
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository connects and creates the diagrams table
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, diagramsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create diagrams table: %w", err)
	}

	return NewPostgresRepositoryFromDB(db), nil
}

// NewPostgresRepositoryFromDB wraps an open database handle
func NewPostgresRepositoryFromDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, sessionID string, d *Diagram) error {
	query := `
		INSERT INTO diagrams (session_id, round_type, xml, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, round_type) DO UPDATE SET xml = EXCLUDED.xml, saved_at = EXCLUDED.saved_at
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, string(d.Round), d.XML, d.SavedAt); err != nil {
		return fmt.Errorf("failed to save diagram: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, sessionID string, round models.RoundType) (*Diagram, error) {
	d := Diagram{Round: round}
	err := r.db.QueryRowContext(ctx,
		`SELECT xml, saved_at FROM diagrams WHERE session_id = $1 AND round_type = $2`,
		sessionID, string(round),
	).Scan(&d.XML, &d.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load diagram: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) List(ctx context.Context, sessionID string) ([]models.RoundType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT round_type FROM diagrams WHERE session_id = $1 ORDER BY round_type`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}
	defer rows.Close()

	out := []models.RoundType{}
	for rows.Next() {
		var round string
		if err := rows.Scan(&round); err != nil {
			return nil, err
		}
		out = append(out, models.RoundType(round))
	}
	return out, rows.Err()
}

func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
