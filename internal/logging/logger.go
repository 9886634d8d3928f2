package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"peakpt/workout-app/internal/config"
)

// Setup configures the global logrus logger. The returned closer releases
// the log file, if any.
func Setup(cfg config.LogConfig) io.Closer {
	if cfg.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetLevel(GetLevel(cfg.Level))

	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		log.Debug("writing logs only to STDOUT")
		return nopCloser{}
	}

	fileName := cfg.File
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}
	rotating := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		LocalTime:  false, // UTC
		Compress:   true,
	}

	if cfg.ToStdout {
		log.SetOutput(NewCombinedWriter(os.Stdout, rotating))
		log.Debugf("writing logs to %s and STDOUT", fileName)
	} else {
		log.SetOutput(rotating)
	}
	return rotating
}

// GetLevel parses a level name; unknown names fall back to info.
func GetLevel(level string) log.Level {
	parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
