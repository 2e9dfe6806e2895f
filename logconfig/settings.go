package logconfig

import (
	"strings"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in the test (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigLoggerByLevel picks one of the presets from a config string.
// "debug" and "info" use the terminal formats, "production" (or anything
// else logrus can parse) uses the json format at that level.
func ConfigLoggerByLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		ConfigDebugLogger()
	case "info", "":
		ConfigInfoLogger()
	case "production":
		ConfigProductionLogger()
	default:
		ConfigProductionLogger()
		lvl, err := myLogger.ParseLevel(level)
		if err != nil {
			myLogger.Warnf("unknown log level %q, fallback to info", level)
			return
		}
		myLogger.SetLevel(lvl)
	}
}
