// Package logging builds the logrus logger shared by the daemon and the
// guard.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Fields = logrus.Fields

type Option struct {
	Level string
	// File enables a rotated log file next to stderr.
	File    string
	NoColor bool
}

// New returns a logger writing to stderr and, if configured, to a rotated
// file.
func New(opt Option) (*logrus.Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if opt.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opt.Level)
		if err != nil {
			return nil, err
		}
	}
	logger.SetLevel(level)

	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opt.NoColor,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	writers := []io.Writer{os.Stderr}
	if opt.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opt.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    20,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(true)

	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
