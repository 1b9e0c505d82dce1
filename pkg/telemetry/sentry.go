package telemetry

import (
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	logging "github.com/ipfs/go-log/v2"
)

type SentryExceptionCaptureFunc func(err error) *sentry.EventID

type subsystemLogger interface {
	Error(args ...any)
	Errorf(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
}

// SentryLogger logs through a subsystem logger and also sends error logs to
// Sentry, unless the subsystem is configured above the error level.
type SentryLogger struct {
	system           string
	log              subsystemLogger
	captureException SentryExceptionCaptureFunc
}

func (s *SentryLogger) Error(args ...any) {
	if getLevel(s.system) <= logging.LevelError {
		s.captureException(fmt.Errorf(formatString(len(args)), args...))
	}
	s.log.Error(args...)
}

func (s *SentryLogger) Errorf(format string, args ...any) {
	if getLevel(s.system) <= logging.LevelError {
		s.captureException(fmt.Errorf(format, args...))
	}
	s.log.Errorf(format, args...)
}

func (s *SentryLogger) Warn(args ...any) {
	s.log.Warn(args...)
}

func (s *SentryLogger) Warnf(format string, args ...any) {
	s.log.Warnf(format, args...)
}

// NewSentryLogger returns a logger for system whose error logs are captured
// by Sentry, tagged with the subsystem name.
//
// Note: you should call [sentry.Init] before using the returned logger.
func NewSentryLogger(system string) *SentryLogger {
	return &SentryLogger{
		system:           system,
		log:              logging.Logger(system),
		captureException: captureWithSubsystem(system),
	}
}

func captureWithSubsystem(system string) SentryExceptionCaptureFunc {
	return func(err error) *sentry.EventID {
		var id *sentry.EventID
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("subsystem", system)
			id = sentry.CaptureException(err)
		})
		return id
	}
}

// formatString gets a format string for the specified number of arguments.
func formatString(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat(" %+v", n)[1:]
}

// getLevel gets the configured log level for the passed subsystem.
func getLevel(system string) logging.LogLevel {
	cfg := logging.GetConfig()
	lvl, ok := cfg.SubsystemLevels[system]
	if !ok {
		return cfg.Level
	}
	return lvl
}
