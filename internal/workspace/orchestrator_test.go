package workspace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/cyrus/internal/alias"
	"github.com/harrison/cyrus/internal/config"
	"github.com/harrison/cyrus/internal/models"
)

func testOrchestrator(t *testing.T, ws *config.Workspace) *Orchestrator {
	t.Helper()
	o := New(ws, alias.NewResolver())
	o.DisableLock = true
	return o
}

func scriptedProject(scripts map[string]string) *config.Project {
	p := config.NewProject("", "", "", "")
	for name, command := range scripts {
		p.Scripts[name] = command
	}
	return p
}

func outcomesByMember(result *models.WorkspaceResult) map[string]models.Outcome {
	byMember := make(map[string]models.Outcome, len(result.Outcomes))
	for _, o := range result.Outcomes {
		byMember[o.Member] = o
	}
	return byMember
}

func TestRunCommandSuccess(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("core"), member("api", "core")},
		map[string]*config.Project{
			"core": scriptedProject(map[string]string{"check": "true"}),
			"api":  scriptedProject(map[string]string{"check": "true"}),
		})
	o := testOrchestrator(t, ws)

	result, err := o.RunCommand(context.Background(), "check", Options{Parallel: true})
	require.NoError(t, err)

	assert.Equal(t, models.OverallSuccess, result.Overall)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "check", result.Command)
	require.Len(t, result.Outcomes, 2)
	// Dependency order: core before api.
	assert.Equal(t, "core", result.Outcomes[0].Member)
	assert.Equal(t, "api", result.Outcomes[1].Member)
}

func TestRunCommandFailureSkipsLaterWaves(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("core"), member("api", "core"), member("web", "core")},
		map[string]*config.Project{
			"core": scriptedProject(map[string]string{"check": "false"}),
			"api":  scriptedProject(map[string]string{"check": "true"}),
			"web":  scriptedProject(map[string]string{"check": "true"}),
		})
	o := testOrchestrator(t, ws)

	result, err := o.RunCommand(context.Background(), "check", Options{Parallel: true})
	require.NoError(t, err)

	assert.Equal(t, models.OverallFailed, result.Overall)
	byMember := outcomesByMember(result)
	assert.Equal(t, models.StatusFailed, byMember["core"].Status)
	for _, name := range []string{"api", "web"} {
		assert.Equal(t, models.StatusSkipped, byMember[name].Status, name)
		assert.Equal(t, models.ReasonNotStarted, byMember[name].Reason, name)
	}
}

func TestRunCommandPartialFailure(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("good"), member("bad")},
		map[string]*config.Project{
			"good": scriptedProject(map[string]string{"check": "true"}),
			"bad":  scriptedProject(map[string]string{"check": "false"}),
		})
	o := testOrchestrator(t, ws)

	result, err := o.RunCommand(context.Background(), "check", Options{Parallel: true, ContinueOnError: true})
	require.NoError(t, err)

	assert.Equal(t, models.OverallPartialFailure, result.Overall)
	succeeded, failed, skipped := result.Counts()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, skipped)
}

func TestRunCommandUnknownFilterMember(t *testing.T) {
	ws := scratchWorkspace(t, []models.Member{member("core")}, nil)
	o := testOrchestrator(t, ws)

	_, err := o.RunCommand(context.Background(), "check", Options{MemberFilter: []string{"ghost"}})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), `unknown member "ghost"`)
}

func TestRunCommandFilterPrunesOutsideDependencies(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("core"), member("api", "core")},
		map[string]*config.Project{
			"api": scriptedProject(map[string]string{"check": "true"}),
		})
	o := testOrchestrator(t, ws)

	result, err := o.RunCommand(context.Background(), "check", Options{Parallel: true, MemberFilter: []string{"api"}})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "api", result.Outcomes[0].Member)
	assert.Equal(t, models.StatusSuccess, result.Outcomes[0].Status)
}

func TestRunCommandCycleAbortsBeforeExecution(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("a", "b"), member("b", "a")},
		map[string]*config.Project{
			"a": scriptedProject(map[string]string{"check": "touch executed-a"}),
			"b": scriptedProject(map[string]string{"check": "touch executed-b"}),
		})
	o := testOrchestrator(t, ws)

	_, err := o.RunCommand(context.Background(), "check", Options{Parallel: true})
	require.Error(t, err)
	assert.True(t, IsCycleError(err))

	// Nothing ran.
	for _, name := range []string{"a", "b"} {
		m, _ := ws.Member(name)
		assert.NoFileExists(t, filepath.Join(ws.MemberDir(m), "executed-"+name))
	}
}

func TestRunScript(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("core"), member("api", "core")},
		nil)
	ws.Scripts = map[string]config.WorkspaceScript{
		"ping": {Command: "true", Parallel: true},
	}
	o := testOrchestrator(t, ws)

	result, err := o.RunScript(context.Background(), "ping", 0)
	require.NoError(t, err)
	assert.Equal(t, models.OverallSuccess, result.Overall)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "true", result.Outcomes[0].Command)
}

func TestRunScriptMemberSubset(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("core"), member("api", "core"), member("web")},
		nil)
	ws.Scripts = map[string]config.WorkspaceScript{
		"web-only": {Command: "true", Members: []string{"web"}, Parallel: true},
	}
	o := testOrchestrator(t, ws)

	result, err := o.RunScript(context.Background(), "web-only", 0)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "web", result.Outcomes[0].Member)
}

func TestRunScriptNotFound(t *testing.T) {
	ws := scratchWorkspace(t, []models.Member{member("core")}, nil)
	o := testOrchestrator(t, ws)

	_, err := o.RunScript(context.Background(), "nope", 0)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

type recordingRecorder struct {
	workspaceName string
	result        *models.WorkspaceResult
	calls         int
}

func (r *recordingRecorder) RecordRun(ctx context.Context, workspaceName string, result *models.WorkspaceResult, startedAt time.Time) error {
	r.workspaceName = workspaceName
	r.result = result
	r.calls++
	return nil
}

func TestRunCommandRecordsResult(t *testing.T) {
	ws := scratchWorkspace(t,
		[]models.Member{member("core")},
		map[string]*config.Project{
			"core": scriptedProject(map[string]string{"check": "true"}),
		})
	o := testOrchestrator(t, ws)
	recorder := &recordingRecorder{}
	o.Recorder = recorder

	result, err := o.RunCommand(context.Background(), "check", Options{Parallel: true})
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, "scratch", recorder.workspaceName)
	assert.Equal(t, result.RunID, recorder.result.RunID)
}

func TestOverallStatus(t *testing.T) {
	success := models.Outcome{Status: models.StatusSuccess}
	failure := models.Outcome{Status: models.StatusFailed}
	skip := models.Outcome{Status: models.StatusSkipped}

	tests := []struct {
		name            string
		outcomes        []models.Outcome
		continueOnError bool
		want            models.OverallStatus
	}{
		{"all success", []models.Outcome{success, success}, false, models.OverallSuccess},
		{"no outcomes", nil, false, models.OverallSuccess},
		{"failure fail-fast", []models.Outcome{failure, skip}, false, models.OverallFailed},
		{"mixed continue-on-error", []models.Outcome{success, failure}, true, models.OverallPartialFailure},
		{"all failed continue-on-error", []models.Outcome{failure, failure}, true, models.OverallFailed},
		{"skips without failures", []models.Outcome{success, skip}, false, models.OverallFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overallStatus(tt.outcomes, tt.continueOnError))
		})
	}
}
