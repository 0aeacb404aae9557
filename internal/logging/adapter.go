package logging

import (
	"log/slog"
)

// CronAdapter lets robfig/cron report scheduler events through slog.
// It satisfies cron.Logger.
type CronAdapter struct {
	logger *slog.Logger
}

// NewCronAdapter wraps logger. A nil logger falls back to slog.Default().
func NewCronAdapter(logger *slog.Logger) *CronAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronAdapter{logger: WithComponent(logger, "scheduler")}
}

// Info logs routine scheduler activity. cron is chatty, so this goes to debug.
func (a *CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

// Error logs a failed or panicking job.
func (a *CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{Err(err)}, keysAndValues...)
	a.logger.Error(msg, args...)
}
