package store

import (
	"context"
	"fmt"
	"time"
)

// Project is a user-defined grouping that records get tagged with. Owned by
// the user, never derived by the pipeline.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) CreateProject(ctx context.Context, name, color string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO projects (name, color, created_at)
		VALUES ($1, $2, now())
		RETURNING id`,
		name, nullStr(color),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateProject(ctx context.Context, id int64, name, color string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE projects SET name = $2, color = $3 WHERE id = $1`,
		id, name, nullStr(color),
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d not found", id)
	}
	return nil
}

// DeleteProject removes the project; assignments referencing it are cleared
// rather than cascading record deletion.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE activity_records SET project_id = NULL WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM project_rules WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("delete rules: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d not found", id)
	}
	return tx.Commit(ctx)
}

func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	var p Project
	var color *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, color, created_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &color, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if color != nil {
		p.Color = *color
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, color, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var color *string
		if err := rows.Scan(&p.ID, &p.Name, &color, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		if color != nil {
			p.Color = *color
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rows: %w", err)
	}
	return projects, nil
}
