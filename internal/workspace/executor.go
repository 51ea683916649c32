package workspace

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/harrison/cyrus/internal/alias"
	"github.com/harrison/cyrus/internal/config"
	"github.com/harrison/cyrus/internal/models"
)

// MemberExecutor resolves and spawns one member's command, producing its
// Outcome. Success and failure are exit-code-driven only; output content is
// captured but never interpreted.
type MemberExecutor struct {
	Resolver  *alias.Resolver
	Workspace *config.Workspace

	// Timeout bounds each member's subprocess (0 = no timeout).
	Timeout time.Duration

	// BaseEnv is the inherited environment; nil means os.Environ().
	// Member configuration entries override inherited ones on key collision.
	BaseEnv []string
}

// Execute resolves commandName for the member and runs it with the member's
// directory as working directory. A resolution miss becomes a Failed outcome
// without spawning anything.
func (e *MemberExecutor) Execute(ctx context.Context, member models.Member, commandName string, wave int) models.Outcome {
	project, err := e.Workspace.MemberProject(member)
	if err != nil {
		return models.Outcome{
			Member:   member.Name,
			Wave:     wave,
			Status:   models.StatusFailed,
			Reason:   models.ReasonSpawnFailure,
			ExitCode: -1,
			Err:      err,
		}
	}

	resolved, err := e.Resolver.Resolve(commandName, project)
	if err != nil {
		return models.Outcome{
			Member:   member.Name,
			Wave:     wave,
			Status:   models.StatusFailed,
			Reason:   models.ReasonCommandNotFound,
			ExitCode: -1,
			Err:      err,
		}
	}

	return e.run(ctx, member, resolved.Line, project.Environment, wave)
}

// ExecuteLine runs a concrete command line in the member directory, skipping
// alias resolution. Workspace scripts use this path.
func (e *MemberExecutor) ExecuteLine(ctx context.Context, member models.Member, line string, wave int) models.Outcome {
	project, err := e.Workspace.MemberProject(member)
	if err != nil {
		return models.Outcome{
			Member:   member.Name,
			Wave:     wave,
			Status:   models.StatusFailed,
			Reason:   models.ReasonSpawnFailure,
			ExitCode: -1,
			Err:      err,
		}
	}
	return e.run(ctx, member, line, project.Environment, wave)
}

func (e *MemberExecutor) run(ctx context.Context, member models.Member, line string, env map[string]string, wave int) models.Outcome {
	outcome := models.Outcome{
		Member:   member.Name,
		Wave:     wave,
		Command:  line,
		ExitCode: -1,
	}

	argv := strings.Fields(line)
	if len(argv) == 0 {
		outcome.Status = models.StatusFailed
		outcome.Reason = models.ReasonSpawnFailure
		outcome.Err = errors.New("empty command line")
		return outcome
	}

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = e.Workspace.MemberDir(member)
	cmd.Env = mergeEnv(e.baseEnv(), env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	outcome.Duration = time.Since(start)
	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()

	if err == nil {
		outcome.Status = models.StatusSuccess
		outcome.ExitCode = 0
		return outcome
	}

	outcome.Status = models.StatusFailed
	outcome.Err = err

	var exitErr *exec.ExitError
	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		outcome.Reason = models.ReasonTimeout
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		}
	case errors.As(err, &exitErr):
		outcome.Reason = models.ReasonNonZeroExit
		outcome.ExitCode = exitErr.ExitCode()
	default:
		// Spawn failed before the process started (e.g. missing executable).
		outcome.Reason = models.ReasonSpawnFailure
	}

	return outcome
}

func (e *MemberExecutor) baseEnv() []string {
	if e.BaseEnv != nil {
		return e.BaseEnv
	}
	return os.Environ()
}

// mergeEnv overlays the member's environment entries onto the base
// environment. Base order is preserved; overridden keys keep their position
// and new keys are appended in sorted order for determinism.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(overrides))
	used := make(map[string]bool, len(overrides))
	for _, entry := range base {
		key := entry
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			key = entry[:idx]
		}
		if value, ok := overrides[key]; ok {
			merged = append(merged, key+"="+value)
			used[key] = true
			continue
		}
		merged = append(merged, entry)
	}

	extra := make([]string, 0, len(overrides))
	for key := range overrides {
		if !used[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		merged = append(merged, key+"="+overrides[key])
	}

	return merged
}
