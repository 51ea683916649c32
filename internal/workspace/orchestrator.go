package workspace

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/cyrus/internal/alias"
	"github.com/harrison/cyrus/internal/config"
	"github.com/harrison/cyrus/internal/filelock"
	"github.com/harrison/cyrus/internal/models"
)

// LockFile is the per-workspace run lock file name.
const LockFile = ".cyrus.lock"

// Options configure one orchestration run.
type Options struct {
	// Parallel enables concurrent execution within waves. When false the
	// concurrency limit is forced to 1.
	Parallel bool

	// ConcurrencyLimit bounds concurrent members within a wave
	// (0 = one slot per member).
	ConcurrencyLimit int

	// MemberFilter restricts the run to the named members. Unknown names are
	// a configuration error reported before execution. Dependencies pointing
	// outside the filtered set are not scheduled.
	MemberFilter []string

	// ContinueOnError keeps scheduling later waves after a failure.
	ContinueOnError bool

	// SkipDependentsOnFailure transitively skips members whose dependency
	// failed instead of attempting them.
	SkipDependentsOnFailure bool
}

// ResultRecorder persists a completed run, e.g. into the history store.
type ResultRecorder interface {
	RecordRun(ctx context.Context, workspaceName string, result *models.WorkspaceResult, startedAt time.Time) error
}

// Orchestrator coordinates one workspace-wide command execution: it builds
// the dependency graph, schedules waves, drives member executors, and
// aggregates outcomes into a WorkspaceResult.
type Orchestrator struct {
	Workspace *config.Workspace
	Resolver  *alias.Resolver
	Logger    Logger

	// MemberTimeout bounds each member's subprocess (0 = none).
	MemberTimeout time.Duration

	// Recorder, when set, receives the result of each completed run.
	// Recording failures are reported through the logger, never to callers.
	Recorder ResultRecorder

	// DisableLock skips the cross-process run lock (used by tests).
	DisableLock bool
}

// New creates an orchestrator for the workspace with the given resolver.
func New(ws *config.Workspace, resolver *alias.Resolver) *Orchestrator {
	return &Orchestrator{Workspace: ws, Resolver: resolver}
}

// RunCommand executes the named abstract command across all (or filtered)
// enabled members in dependency order and returns the aggregated result.
// Configuration problems (bad filter, dangling dependency, cycle) abort the
// call before any subprocess is spawned.
func (o *Orchestrator) RunCommand(ctx context.Context, commandName string, opts Options) (*models.WorkspaceResult, error) {
	executor := &MemberExecutor{
		Resolver:  o.Resolver,
		Workspace: o.Workspace,
		Timeout:   o.MemberTimeout,
	}
	action := func(ctx context.Context, member models.Member, wave int) models.Outcome {
		return executor.Execute(ctx, member, commandName, wave)
	}
	return o.run(ctx, commandName, opts, action)
}

// RunScript executes a named workspace script. The script's concrete command
// line runs verbatim in each targeted member; the script's own parallel and
// continue-on-error settings apply.
func (o *Orchestrator) RunScript(ctx context.Context, name string, concurrencyLimit int) (*models.WorkspaceResult, error) {
	script, ok := o.Workspace.Scripts[name]
	if !ok {
		return nil, NewConfigError("workspace script %q not found", name)
	}

	opts := Options{
		Parallel:         script.Parallel,
		ConcurrencyLimit: concurrencyLimit,
		MemberFilter:     script.Members,
		ContinueOnError:  script.ContinueOnError,
	}

	executor := &MemberExecutor{
		Resolver:  o.Resolver,
		Workspace: o.Workspace,
		Timeout:   o.MemberTimeout,
	}
	action := func(ctx context.Context, member models.Member, wave int) models.Outcome {
		return executor.ExecuteLine(ctx, member, script.Command, wave)
	}
	return o.run(ctx, name, opts, action)
}

func (o *Orchestrator) run(ctx context.Context, commandName string, opts Options, action Action) (*models.WorkspaceResult, error) {
	start := time.Now()

	candidates, err := o.filterMembers(opts.MemberFilter)
	if err != nil {
		return nil, err
	}

	graph, err := BuildGraph(candidates)
	if err != nil {
		return nil, err
	}
	waves := ComputeWaves(graph)

	limit := opts.ConcurrencyLimit
	if !opts.Parallel {
		limit = 1
	}
	policy := Policy{
		ContinueOnError:         opts.ContinueOnError,
		SkipDependentsOnFailure: opts.SkipDependentsOnFailure,
	}

	if !o.DisableLock {
		lock := filelock.NewRunLock(filepath.Join(o.Workspace.RootPath, LockFile))
		release, err := lock.Acquire()
		if err != nil {
			return nil, err
		}
		defer release()
	}

	outcomes := RunWaves(ctx, graph, waves, limit, action, policy, o.Logger)

	result := &models.WorkspaceResult{
		RunID:    uuid.NewString(),
		Command:  commandName,
		Outcomes: outcomes,
		Overall:  overallStatus(outcomes, opts.ContinueOnError),
		Duration: time.Since(start),
	}

	if o.Logger != nil {
		o.Logger.LogSummary(result)
	}
	if o.Recorder != nil {
		// History is best-effort; a recording failure never fails the run.
		_ = o.Recorder.RecordRun(ctx, o.Workspace.Name, result, start)
	}

	return result, nil
}

// filterMembers applies the member filter to the full member list. Unknown
// filter names are a configuration error. When a filter is given,
// dependencies pointing outside the filtered set are pruned: the caller
// explicitly chose the subset, and those members are neither disabled nor
// nonexistent.
func (o *Orchestrator) filterMembers(filter []string) ([]models.Member, error) {
	if len(filter) == 0 {
		return o.Workspace.Members, nil
	}

	selected := make(map[string]bool, len(filter))
	for _, name := range filter {
		if _, ok := o.Workspace.Member(name); !ok {
			return nil, NewConfigError("unknown member %q in filter", name)
		}
		selected[name] = true
	}

	var members []models.Member
	for _, m := range o.Workspace.Members {
		if !selected[m.Name] {
			continue
		}
		kept := m
		kept.DependsOn = nil
		for _, dep := range m.DependsOn {
			if selected[dep] {
				kept.DependsOn = append(kept.DependsOn, dep)
			}
		}
		members = append(members, kept)
	}
	return members, nil
}

// overallStatus derives the aggregate status: Success only when every
// outcome succeeded; PartialFailure when failures and successes coexist
// under continue-on-error; Failed otherwise.
func overallStatus(outcomes []models.Outcome, continueOnError bool) models.OverallStatus {
	var succeeded, failed, skipped int
	for _, o := range outcomes {
		switch o.Status {
		case models.StatusSuccess:
			succeeded++
		case models.StatusFailed:
			failed++
		case models.StatusSkipped:
			skipped++
		}
	}

	switch {
	case failed == 0 && skipped == 0:
		return models.OverallSuccess
	case failed > 0 && succeeded > 0 && continueOnError:
		return models.OverallPartialFailure
	default:
		return models.OverallFailed
	}
}
