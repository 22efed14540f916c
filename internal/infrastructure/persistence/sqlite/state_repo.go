package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

type stateRepo struct {
	db *sql.DB
}

// NewStateRepository creates the persistent surface-state store.
func NewStateRepository(db *sql.DB) port.StateStore {
	return &stateRepo{db: db}
}

// SaveActive records the foreground platform of a group.
func (r *stateRepo) SaveActive(ctx context.Context, group entity.GroupID, platform entity.PlatformID) error {
	log := logging.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO active_platform (group_id, platform_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (group_id) DO UPDATE SET
			platform_id = excluded.platform_id,
			updated_at  = excluded.updated_at`,
		string(group), string(platform), time.Now().Unix())
	if err != nil {
		return err
	}

	log.Debug().
		Str("group", string(group)).
		Str("platform", string(platform)).
		Msg("saved active platform")
	return nil
}

// LoadActive returns the last recorded foreground platform of a group, or ""
// when the group has no record yet.
func (r *stateRepo) LoadActive(ctx context.Context, group entity.GroupID) (entity.PlatformID, error) {
	var platform string
	err := r.db.QueryRowContext(ctx, `
		SELECT platform_id FROM active_platform WHERE group_id = ?`,
		string(group)).Scan(&platform)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return entity.PlatformID(platform), nil
}

// RecordAccess bumps the access counter and recency of a platform.
func (r *stateRepo) RecordAccess(ctx context.Context, group entity.GroupID, platform entity.PlatformID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO platform_access (group_id, platform_id, access_count, last_access)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (group_id, platform_id) DO UPDATE SET
			access_count = access_count + 1,
			last_access  = excluded.last_access`,
		string(group), string(platform), time.Now().Unix())
	return err
}

// RecentPlatforms returns up to limit platform ids of a group, most recently
// accessed first.
func (r *stateRepo) RecentPlatforms(ctx context.Context, group entity.GroupID, limit int) ([]entity.PlatformID, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT platform_id FROM platform_access
		WHERE group_id = ?
		ORDER BY last_access DESC, access_count DESC
		LIMIT ?`,
		string(group), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []entity.PlatformID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, entity.PlatformID(id))
	}
	return out, rows.Err()
}
