package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger. main calls InitLogger
// once before anything else logs.
var Logger = logrus.New()

// serviceHook stamps every entry with the service name so aggregated
// logs from the dev compose stack stay attributable.
type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.service
	return nil
}

// InitLogger configures level and format from the environment.
// LOG_LEVEL accepts any logrus level name; unset or invalid means info.
func InitLogger(service string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL %q, defaulting to info", levelStr)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	Logger.AddHook(&serviceHook{service: service})
}
