package harness

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// NewLogger builds the structured logger used for run startup/shutdown
// and fatal configuration diagnostics. Never used on the queue or
// hash-table hot paths.
func NewLogger() log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC, "component", "kcount")
	return level.NewFilter(l, level.AllowInfo())
}

// LogInfo and LogError mirror the level.Info/level.Error call shape
// grafana/tempo uses throughout its cmd/ package — kept as thin
// wrappers so harness call sites read like "LogInfo(logger, "msg", ...,
// "k", v)" instead of repeating the level.Info(logger).Log(...) chain
// at every call site.
func LogInfo(logger log.Logger, keyvals ...interface{}) {
	_ = level.Info(logger).Log(keyvals...)
}

func LogError(logger log.Logger, keyvals ...interface{}) {
	_ = level.Error(logger).Log(keyvals...)
}
