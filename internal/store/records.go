package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/traceworks/traceback/internal/event"
)

// UpsertRecord inserts a raw activity record or refreshes an existing one,
// keyed by (source_kind, external_id) so re-ingesting a window is idempotent.
// Returns the stored record ID and whether the row was new.
func (s *Store) UpsertRecord(ctx context.Context, r event.Record, externalID string) (uuid.UUID, bool, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	var id uuid.UUID
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO activity_records (id, source_kind, title, start_at, end_at, external_id, external_link, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (source_kind, external_id)
		DO UPDATE SET
			title = $3,
			start_at = $4,
			end_at = $5,
			external_link = $7,
			payload = $8,
			updated_at = now()
		RETURNING id, (xmax = 0)`,
		r.ID, r.Kind, r.Title, r.StartAt, r.EndAt, externalID, nullStr(r.ExternalLink), event.EncodePayload(r.Payload),
	).Scan(&id, &inserted)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("upsert record: %w", err)
	}
	return id, inserted, nil
}

// ListRecords fetches the raw records intersecting [start, end), ordered by
// start time then id for stable output.
func (s *Store) ListRecords(ctx context.Context, start, end time.Time) ([]event.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_kind, title, start_at, end_at, external_link, payload, project_id
		FROM activity_records
		WHERE start_at < $2 AND end_at >= $1
		ORDER BY start_at, id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListRecordsByProject fetches the records assigned to one project within a
// window.
func (s *Store) ListRecordsByProject(ctx context.Context, projectID int64, start, end time.Time) ([]event.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_kind, title, start_at, end_at, external_link, payload, project_id
		FROM activity_records
		WHERE project_id = $1 AND start_at < $3 AND end_at >= $2
		ORDER BY start_at, id`,
		projectID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query records by project: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// AssignProject sets or clears the manual project assignment of one record.
func (s *Store) AssignProject(ctx context.Context, recordID uuid.UUID, projectID *int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE activity_records SET project_id = $2, updated_at = now() WHERE id = $1`,
		recordID, projectID,
	)
	if err != nil {
		return fmt.Errorf("assign project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s not found", recordID)
	}
	return nil
}

// AssignProjectToAll sets the project for every listed record in one
// statement. Used when the user tags an aggregate: all member records share
// the assignment.
func (s *Store) AssignProjectToAll(ctx context.Context, recordIDs []uuid.UUID, projectID *int64) error {
	if len(recordIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE activity_records SET project_id = $2, updated_at = now() WHERE id = ANY($1)`,
		recordIDs, projectID,
	)
	if err != nil {
		return fmt.Errorf("assign project to members: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]event.Record, error) {
	var records []event.Record
	for rows.Next() {
		var r event.Record
		var link *string
		var payload []byte
		if err := rows.Scan(&r.ID, &r.Kind, &r.Title, &r.StartAt, &r.EndAt, &link, &payload, &r.ProjectID); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		if link != nil {
			r.ExternalLink = *link
		}
		// Parse the per-kind payload exactly once, here at the storage
		// boundary. A malformed payload degrades to nil; the record
		// still flows through the pipeline on its top-level fields.
		r.Payload = event.DecodePayload(r.Kind, payload)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return records, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
