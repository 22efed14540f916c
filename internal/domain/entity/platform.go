// Package entity defines the core domain types of chatdock.
package entity

import "fmt"

// GroupID identifies a surface group. Each group owns its own registry,
// capacity and active platform; groups never share surfaces.
type GroupID string

const (
	GroupChat        GroupID = "chat"
	GroupTranslation GroupID = "translation"
	GroupQuickAsk    GroupID = "quickask"
)

// PlatformID uniquely identifies a configured platform within its group.
type PlatformID string

// PlatformDescriptor describes one external web destination the user can
// select. Descriptors are created by configuration load and are immutable
// once handed to the orchestration core.
type PlatformDescriptor struct {
	ID       PlatformID
	Name     string
	URL      string
	Group    GroupID
	Enabled  bool
	Rank     int
	ProxyURL string // optional per-platform proxy; changing it forces a surface rebuild
}

// SurfaceLabel derives the host-side label for a platform's embedded surface.
func SurfaceLabel(group GroupID, id PlatformID) string {
	return fmt.Sprintf("dock-%s-%s", group, id)
}
