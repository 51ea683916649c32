package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harrison/cyrus/internal/models"
)

// Policy controls how member failures propagate through a run.
type Policy struct {
	// ContinueOnError keeps scheduling later waves after a failure. When
	// false, no member of a later wave starts once any member has failed;
	// in-flight members of the current wave still finish and report.
	ContinueOnError bool

	// SkipDependentsOnFailure marks members whose dependency failed (or was
	// itself skipped for this reason) as Skipped without invocation. Only
	// meaningful together with ContinueOnError.
	SkipDependentsOnFailure bool
}

// Action executes the workspace command for one member and returns its
// outcome. Implementations own their subprocess handle and never see
// sibling state.
type Action func(ctx context.Context, member models.Member, wave int) models.Outcome

// ComputeWaves layers the graph into execution waves using Kahn's algorithm:
// a member enters wave k when all of its dependencies sit in waves < k.
// Ties within a wave are broken by the stable member order of the original
// descriptor, so wave contents are deterministic across runs.
func ComputeWaves(g *Graph) []models.Wave {
	n := g.Len()
	if n == 0 {
		return []models.Wave{}
	}

	inDegree := make([]int, n)
	for i := range g.deps {
		inDegree[i] = len(g.deps[i])
	}

	placed := make([]bool, n)
	var waves []models.Wave
	remaining := n

	for remaining > 0 {
		var current []int
		for i := 0; i < n; i++ {
			if !placed[i] && inDegree[i] == 0 {
				current = append(current, i)
			}
		}
		// BuildGraph guarantees acyclicity, so every pass frees at least
		// one member.

		names := make([]string, 0, len(current))
		for _, i := range current {
			placed[i] = true
			names = append(names, g.members[i].Name)
		}
		waves = append(waves, models.Wave{
			Name:    fmt.Sprintf("Wave %d", len(waves)+1),
			Members: names,
		})

		for _, i := range current {
			for _, dependent := range g.dependents[i] {
				inDegree[dependent]--
			}
		}
		remaining -= len(current)
	}

	return waves
}

type memberExecution struct {
	name    string
	outcome models.Outcome
}

// RunWaves drives the action across all waves. Waves run strictly in
// sequence; within a wave up to limit members run concurrently (limit <= 0
// means one slot per member in the wave). Outcomes come back in wave order,
// then stable member order within each wave, one per scheduled member.
func RunWaves(ctx context.Context, g *Graph, waves []models.Wave, limit int, action Action, policy Policy, logger Logger) []models.Outcome {
	var outcomes []models.Outcome

	// Members that must not cascade into their dependents.
	unavailable := make(map[string]bool)
	aborted := false

	for waveIdx, wave := range waves {
		if aborted || ctx.Err() != nil {
			reason := models.ReasonNotStarted
			if ctx.Err() != nil {
				reason = models.ReasonCancelled
			}
			for _, name := range wave.Members {
				outcomes = append(outcomes, skippedOutcome(name, waveIdx, reason))
			}
			continue
		}

		var toRun []string
		var waveSkips []models.Outcome
		for _, name := range wave.Members {
			if policy.SkipDependentsOnFailure && dependencyUnavailable(g, name, unavailable) {
				unavailable[name] = true
				waveSkips = append(waveSkips, skippedOutcome(name, waveIdx, models.ReasonDependencyFailed))
				continue
			}
			toRun = append(toRun, name)
		}

		waveStart := time.Now()
		if logger != nil && len(toRun) > 0 {
			logger.LogWaveStart(wave, waveIdx, len(waves))
		}

		results := runWave(ctx, g, toRun, waveIdx, limit, action, logger)

		waveFailed := false
		for _, name := range wave.Members {
			if outcome, ok := results[name]; ok {
				outcomes = append(outcomes, outcome)
				if outcome.Status == models.StatusFailed {
					waveFailed = true
					unavailable[name] = true
				}
				continue
			}
			for _, skip := range waveSkips {
				if skip.Member == name {
					outcomes = append(outcomes, skip)
					break
				}
			}
		}

		if logger != nil && len(toRun) > 0 {
			logger.LogWaveComplete(wave, waveIdx, time.Since(waveStart))
		}

		if waveFailed && !policy.ContinueOnError {
			aborted = true
		}
	}

	return outcomes
}

// runWave executes the given members with bounded parallelism. The semaphore
// slot is acquired before spawning and released exactly once per member on
// every exit path. Members queue in stable order when the limit saturates.
func runWave(ctx context.Context, g *Graph, names []string, waveIdx, limit int, action Action, logger Logger) map[string]models.Outcome {
	results := make(map[string]models.Outcome, len(names))
	if len(names) == 0 {
		return results
	}

	maxConcurrency := limit
	if maxConcurrency <= 0 || maxConcurrency > len(names) {
		maxConcurrency = len(names)
	}

	semaphore := make(chan struct{}, maxConcurrency)
	resultsCh := make(chan memberExecution, len(names))

	var wg sync.WaitGroup

launch:
	for _, name := range names {
		member, _ := g.Member(name)

		// Never block on a cancelled context waiting for a slot.
		select {
		case <-ctx.Done():
			break launch
		case semaphore <- struct{}{}:
		}

		wg.Add(1)

		go func(member models.Member) {
			defer wg.Done()
			defer func() { <-semaphore }()

			outcome := action(ctx, member, waveIdx)
			resultsCh <- memberExecution{name: member.Name, outcome: outcome}
		}(member)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for execution := range resultsCh {
		results[execution.name] = execution.outcome
		if logger != nil {
			logger.LogMemberResult(execution.outcome)
		}
	}

	// Members never launched because the context was cancelled mid-wave.
	for _, name := range names {
		if _, ok := results[name]; !ok {
			results[name] = skippedOutcome(name, waveIdx, models.ReasonCancelled)
		}
	}

	return results
}

// dependencyUnavailable reports whether any direct dependency of the member
// failed or was skipped because of an upstream failure.
func dependencyUnavailable(g *Graph, name string, unavailable map[string]bool) bool {
	for _, dep := range g.Dependencies(name) {
		if unavailable[dep] {
			return true
		}
	}
	return false
}

func skippedOutcome(name string, wave int, reason models.FailureReason) models.Outcome {
	return models.Outcome{
		Member:   name,
		Wave:     wave,
		Status:   models.StatusSkipped,
		Reason:   reason,
		ExitCode: -1,
	}
}
