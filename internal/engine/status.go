package engine

import "time"

// Status is one progress report to the host service manager. While the
// engine is in a pending state, Checkpoint strictly increases across reports
// and WaitHint exceeds the time the pending operation is expected to take;
// in steady and terminal states both are zero, per service-manager
// convention.
type Status struct {
	State      State
	Checkpoint uint32
	WaitHint   time.Duration
}

// Host is the capability the engine needs from the host service manager:
// accepting status reports. Control codes flow the other way, into
// OnControl. A report error is fatal to the service; the engine can no
// longer coordinate shutdown timing with the host.
type Host interface {
	Report(Status) error
}

// Exit codes returned by the wrapper process. Zero means a clean stop; any
// other value is the child's last real exit code or one of the sentinels
// below.
const (
	ExitOK = 0
	// ExitSpawnFailed is returned when the child could not be created.
	ExitSpawnFailed = 101
	// ExitForcedKill is returned when a stop escalated to a forced tree
	// kill, so no real child exit code exists.
	ExitForcedKill = 102
	// ExitKillFailed is returned when the child tree could not be
	// reclaimed even by a forced kill.
	ExitKillFailed = 103
	// ExitReportFailed is returned when the host stopped accepting status
	// reports.
	ExitReportFailed = 104
)
