// Package log configures the diagnostic logger. User-facing status lines are
// printed by downloader.Printer; this is for warnings and debug traces.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the level when no flag is given.
const EnvLevel = "YTPP_LOG_LEVEL"

// DefaultLevel keeps normal runs quiet apart from cleanup and tagging warnings.
const DefaultLevel = "warn"

// Setup points logrus at out with the given level. An empty level falls back
// to $YTPP_LOG_LEVEL and then DefaultLevel; an unknown one to DefaultLevel.
func Setup(level string, out io.Writer) logrus.Level {
	if out == nil {
		out = os.Stderr
	}
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.WarnLevel
	}
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       parsed < logrus.DebugLevel,
		DisableLevelTruncation: true,
	})
	logrus.SetLevel(parsed)
	return parsed
}
