package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if os.Getenv("MARTPUB_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

func Error(err error) {
	logger.Error(err)
}

func Panic(err error) {
	logger.Panic(err)
}

// WithField returns an entry carrying a structured field, for call sites
// that log the same table or key repeatedly.
func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}
