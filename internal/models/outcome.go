package models

import "time"

// Status is the terminal state of one member's command attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FailureReason tags why a member failed or was skipped.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNonZeroExit      FailureReason = "nonzero-exit"
	ReasonTimeout          FailureReason = "timeout"
	ReasonSpawnFailure     FailureReason = "spawn-failure"
	ReasonCommandNotFound  FailureReason = "command-not-found"
	ReasonDependencyFailed FailureReason = "dependency-failed"
	ReasonNotStarted       FailureReason = "not-started"
	ReasonCancelled        FailureReason = "cancelled"
)

// Outcome is the immutable result record of attempting one member's command.
// Exactly one Outcome is produced per member per orchestration run.
type Outcome struct {
	Member   string        // Member name
	Wave     int           // Zero-based wave index the member was scheduled in
	Command  string        // Resolved command line ("" if resolution failed or skipped)
	Status   Status        // Success, Failed, or Skipped
	Reason   FailureReason // Set when Status != Success
	ExitCode int           // Subprocess exit code (-1 if never spawned)
	Duration time.Duration // Wall time for the attempt
	Stdout   string        // Captured standard output
	Stderr   string        // Captured standard error
	Err      error         // Underlying error for Failed outcomes (optional)
}

// OverallStatus summarizes a whole workspace run.
type OverallStatus string

const (
	OverallSuccess        OverallStatus = "success"
	OverallFailed         OverallStatus = "failed"
	OverallPartialFailure OverallStatus = "partial-failure"
)

// WorkspaceResult aggregates every member outcome of one orchestration run,
// ordered by wave and then by stable member order. It is never mutated after
// the orchestrator returns it.
type WorkspaceResult struct {
	RunID    string        // Unique identifier for this run
	Command  string        // Abstract command name that was executed
	Outcomes []Outcome     // Wave-then-member ordered outcomes
	Overall  OverallStatus // Success, Failed, or PartialFailure
	Duration time.Duration // Total orchestration wall time
}

// Counts returns the number of succeeded, failed, and skipped outcomes.
func (r *WorkspaceResult) Counts() (succeeded, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// FailedOutcomes returns the outcomes that failed, in result order.
func (r *WorkspaceResult) FailedOutcomes() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
