package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger. Production defaults to JSON
// output; format may force "json" or "text".
func Setup(level, format string, production bool) {
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	useJSON := production
	switch format {
	case "json":
		useJSON = true
	case "text":
		useJSON = false
	}

	if useJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Component returns a logger tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
