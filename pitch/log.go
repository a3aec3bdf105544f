package pyin

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Process-wide logging sink, initialized exactly once.
 *
 * Description:	A single shared sink that every caller can request without
 *		racing to construct it. The guard is a sync.Once, so it is
 *		safe under concurrent first calls from multiple goroutines.
 *
 *----------------------------------------------------------------*/

var (
	globalLoggerOnce sync.Once
	globalLogger     *log.Logger
)

// defaultLogger returns the process-wide logger, constructing it on first
// use. Level is controlled by PYIN_LOG_LEVEL (debug/info/warn/error),
// defaulting to warn so a library consumer isn't spammed by default.
func defaultLogger() *log.Logger {
	globalLoggerOnce.Do(func() {
		lvl := log.WarnLevel
		if parsed, err := log.ParseLevel(os.Getenv("PYIN_LOG_LEVEL")); err == nil {
			lvl = parsed
		}
		globalLogger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "pyin",
			Level:  lvl,
		})
	})
	return globalLogger
}
