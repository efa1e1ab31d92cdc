package postgres

import (
	"context"
	"fmt"

	"github.com/julianstephens/unfilled/internal/models"
)

func (s *Store) SetAssignment(ctx context.Context, a models.Assignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (day, url, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (day) DO UPDATE SET url = EXCLUDED.url, updated_at = EXCLUDED.updated_at`,
		a.Day, a.URL, a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to assign day %d: %w", a.Day, err)
	}
	return nil
}

func (s *Store) GetAssignments(ctx context.Context) ([]models.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT day, url, updated_at FROM assignments ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	out := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.Day, &a.URL, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
