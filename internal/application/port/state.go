package port

import (
	"context"

	"github.com/chatdock/chatdock/internal/domain/entity"
)

// StateStore persists per-group selection state across launches so the
// shell can reopen on the platform the user last used.
type StateStore interface {
	// SaveActive records platform as the active selection of group.
	SaveActive(ctx context.Context, group entity.GroupID, platform entity.PlatformID) error
	// LoadActive returns the last active platform of group, or "" when the
	// group has no recorded selection.
	LoadActive(ctx context.Context, group entity.GroupID) (entity.PlatformID, error)
	// RecordAccess bumps platform's last-access timestamp for group.
	RecordAccess(ctx context.Context, group entity.GroupID, platform entity.PlatformID) error
	// RecentPlatforms lists platforms of group by descending last access.
	RecentPlatforms(ctx context.Context, group entity.GroupID, limit int) ([]entity.PlatformID, error)
}
