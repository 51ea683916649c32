// Package logger provides console logging for orchestration runs.
//
// Output is leveled, mutex-guarded, and prefixed with [HH:MM:SS] timestamps.
// Color is enabled automatically when writing to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/cyrus/internal/models"
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

// Console logs orchestration progress to a writer. It implements the
// workspace.Logger interface and is safe for concurrent use.
type Console struct {
	writer   io.Writer
	level    int
	useColor bool
	mu       sync.Mutex
}

// NewConsole creates a console logger writing to w. If w is nil, messages
// are discarded. Valid levels: trace, debug, info, warn, error; anything
// else defaults to info. Color is enabled only when w is a TTY.
func NewConsole(w io.Writer, level string) *Console {
	return &Console{
		writer:   w,
		level:    parseLevel(level),
		useColor: isTerminal(w),
	}
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) printf(level int, format string, args ...interface{}) {
	if c.writer == nil || level < c.level {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(c.writer, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// Infof logs a formatted message at info level.
func (c *Console) Infof(format string, args ...interface{}) {
	c.printf(levelInfo, format, args...)
}

// Warnf logs a formatted message at warn level.
func (c *Console) Warnf(format string, args ...interface{}) {
	c.printf(levelWarn, format, args...)
}

// LogWaveStart logs the start of a wave.
func (c *Console) LogWaveStart(wave models.Wave, index, total int) {
	c.printf(levelInfo, "Starting %s (%d/%d) with %d member(s)", wave.Name, index+1, total, len(wave.Members))
}

// LogWaveComplete logs wave completion with its duration.
func (c *Console) LogWaveComplete(wave models.Wave, index int, duration time.Duration) {
	c.printf(levelInfo, "Completed %s in %s", wave.Name, duration.Round(time.Millisecond))
}

// LogMemberResult logs one member's outcome.
func (c *Console) LogMemberResult(outcome models.Outcome) {
	status := c.paintStatus(outcome.Status)
	switch outcome.Status {
	case models.StatusSuccess:
		c.printf(levelInfo, "%s %s (%s)", status, outcome.Member, outcome.Duration.Round(time.Millisecond))
	case models.StatusSkipped:
		c.printf(levelInfo, "%s %s (%s)", status, outcome.Member, outcome.Reason)
	default:
		detail := string(outcome.Reason)
		if outcome.Err != nil {
			detail = fmt.Sprintf("%s: %v", outcome.Reason, outcome.Err)
		}
		c.printf(levelWarn, "%s %s (%s)", status, outcome.Member, detail)
	}
}

// LogSummary logs the aggregated run result.
func (c *Console) LogSummary(result *models.WorkspaceResult) {
	succeeded, failed, skipped := result.Counts()
	c.printf(levelInfo, "Run %s: %s, %d succeeded, %d failed, %d skipped in %s",
		result.Command, c.paintOverall(result.Overall), succeeded, failed, skipped,
		result.Duration.Round(time.Millisecond))
	for _, o := range result.FailedOutcomes() {
		c.printf(levelInfo, "  failed: %s (%s, exit %d)", o.Member, o.Reason, o.ExitCode)
	}
}

func (c *Console) paintStatus(status models.Status) string {
	label := strings.ToUpper(string(status))
	if !c.useColor {
		return label
	}
	switch status {
	case models.StatusSuccess:
		return color.GreenString(label)
	case models.StatusFailed:
		return color.RedString(label)
	default:
		return color.YellowString(label)
	}
}

func (c *Console) paintOverall(overall models.OverallStatus) string {
	label := string(overall)
	if !c.useColor {
		return label
	}
	switch overall {
	case models.OverallSuccess:
		return color.GreenString(label)
	case models.OverallFailed:
		return color.RedString(label)
	default:
		return color.YellowString(label)
	}
}
