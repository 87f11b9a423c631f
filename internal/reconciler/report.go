package reconciler

import "github.com/specialistvlad/branchtalk/internal/txn"

// Path is the update path a cycle took.
type Path string

const (
	PathNone         Path = "none"
	PathFull         Path = "full"
	PathDifferential Path = "differential"
)

// ChannelReport is the outcome of the differential path for one channel.
type ChannelReport struct {
	ChannelID string
	// Result is nil when the collaborator failed or the result was stale.
	Result *txn.Result
	Err    error
	Stale  bool
}

// CleanupReport lists the nodes deleted for a removed channel.
type CleanupReport struct {
	ChannelID string
	Deleted   []string
}

// Report describes the last cycle run by a Reconcile call.
type Report struct {
	Path      Path
	Coalesced bool
	// Cycles is the number of cycles the call ran, including the last one.
	Cycles int

	// Full regeneration.
	Ingested []string
	// Proposed ids that collided with a locked node and were dropped.
	Rejected []string
	Stale    bool

	Channels []ChannelReport
	Cleanups []CleanupReport

	// Errors holds every collaborator failure of the cycle.
	Errors  []error
	Version uint64
}

// Failed reports whether any collaborator call of the cycle failed.
func (r *Report) Failed() bool { return len(r.Errors) > 0 }
