// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"tms/internal/config"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr with the configured level and format.
func New(c config.Log) (*logrus.Logger, error) {
	return newLogger(c, os.Stderr)
}

func newLogger(c config.Log, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	level := logrus.InfoLevel
	if c.Level != "" {
		var err error
		level, err = logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}
