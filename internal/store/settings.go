package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetSetting returns the value for key, or "" when the key is unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// ListTrustedOrgs returns the trusted code-hosting organizations. Read fresh
// on every pipeline invocation; never cached inside the core.
func (s *Store) ListTrustedOrgs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM trusted_orgs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list trusted orgs: %w", err)
	}
	defer rows.Close()

	var orgs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan org row: %w", err)
		}
		orgs = append(orgs, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate org rows: %w", err)
	}
	return orgs, nil
}

func (s *Store) AddTrustedOrg(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trusted_orgs (name, created_at)
		VALUES ($1, now())
		ON CONFLICT (name) DO NOTHING`,
		name,
	)
	if err != nil {
		return fmt.Errorf("add trusted org: %w", err)
	}
	return nil
}

func (s *Store) RemoveTrustedOrg(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM trusted_orgs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("remove trusted org: %w", err)
	}
	return nil
}

// SyncStatus reports the ingestion collaborator's last completed pass.
type SyncStatus struct {
	LastSyncTime   *time.Time `json:"last_sync_time"`
	SyncInProgress bool       `json:"sync_in_progress"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *Store) GetSyncStatus(ctx context.Context) (SyncStatus, error) {
	var st SyncStatus
	err := s.pool.QueryRow(ctx, `
		SELECT last_sync_time, sync_in_progress, updated_at FROM sync_status WHERE id = 1`,
	).Scan(&st.LastSyncTime, &st.SyncInProgress, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SyncStatus{}, nil
	}
	if err != nil {
		return SyncStatus{}, fmt.Errorf("get sync status: %w", err)
	}
	return st, nil
}

func (s *Store) UpdateSyncStatus(ctx context.Context, lastSync *time.Time, inProgress bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_status (id, last_sync_time, sync_in_progress, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			last_sync_time = COALESCE($1, sync_status.last_sync_time),
			sync_in_progress = $2,
			updated_at = now()`,
		lastSync, inProgress,
	)
	if err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	return nil
}
