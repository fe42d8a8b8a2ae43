package cli

import (
	"github.com/google/uuid"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/config"
)

// setupLogging configures the global logger from the settings and tags
// every line of this run with a run id.
func setupLogging(settings config.Settings) string {
	logger.InitLogger(settings.LogLevel, logger.ParseFormat(settings.LogFormat))
	runID := uuid.NewString()
	logger.With("run_id", runID)
	return runID
}
