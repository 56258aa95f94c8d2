package config

import (
	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger is the process-wide logger. It starts at info level so packages can
// log before InitApp runs; InitLogger re-levels it from config.yaml.
var Logger = newLogger("info")

func InitLogger() {
	Logger = newLogger(GetConfig().Logging.Level)
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewConsoleHandler(levels)
	formatter := slog.NewTextFormatter()
	formatter.TimeFormat = "2006-01-02T15:04:05"
	h.SetFormatter(formatter)

	return slog.NewWithHandlers(h)
}
