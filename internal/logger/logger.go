package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger. Development gets the text formatter with full
// timestamps, everything else logs JSON.
func New(appEnv, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	env := strings.ToLower(strings.TrimSpace(appEnv))
	if env == "development" || env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// Nop returns a logger that discards everything.
func Nop() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
