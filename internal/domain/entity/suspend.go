package entity

// SuspendState models the suspend/restore lifecycle of a surface group as a
// single enum instead of independent booleans, so that "restore pending" and
// "restore suppressed" cannot both be set at once.
type SuspendState int

const (
	// SuspendActive: surfaces follow normal selection; nothing pending.
	SuspendActive SuspendState = iota
	// SuspendPendingRestore: surfaces were hidden by a trigger that should
	// auto-restore (minimize, tray hide); the next restore event re-shows
	// the selected platform.
	SuspendPendingRestore
	// SuspendSuppressed: surfaces were hidden explicitly (modal overlay,
	// intentional dismissal); the next non-forced restore is consumed
	// without re-showing anything.
	SuspendSuppressed
)

func (s SuspendState) String() string {
	switch s {
	case SuspendActive:
		return "active"
	case SuspendPendingRestore:
		return "hidden-pending-restore"
	case SuspendSuppressed:
		return "hidden-suppressed"
	default:
		return "unknown"
	}
}
