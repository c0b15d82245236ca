package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request after the handler chain returns.
func RequestLogger(log *logrus.Entry) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"duration": time.Since(start).String(),
		}
		if id := GetUserID(c); id != uuid.Nil {
			fields["user_id"] = id
		}
		log.WithFields(fields).Info("request")
	}
}
