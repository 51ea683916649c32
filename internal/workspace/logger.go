package workspace

import (
	"time"

	"github.com/harrison/cyrus/internal/models"
)

// Logger receives orchestration progress events. Implementations must be
// safe for concurrent use; a nil Logger disables logging.
type Logger interface {
	LogWaveStart(wave models.Wave, index, total int)
	LogWaveComplete(wave models.Wave, index int, duration time.Duration)
	LogMemberResult(outcome models.Outcome)
	LogSummary(result *models.WorkspaceResult)
}
