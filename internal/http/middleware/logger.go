package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"printdesk/internal/logging"
)

// Logger logs each HTTP request as one JSON line with:
// - request_id (taken from context locals set by RequestID middleware)
// - owner_id when the request was authenticated
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := logrus.Fields{
			"request_id": requestID(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     statusOf(c, err),
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if owner, ok := c.Locals(OwnerIDLocalKey).(string); ok && owner != "" {
			fields["owner_id"] = owner
		}
		log.WithFields(fields).Info("request")

		return err
	}
}

// LoggerWithWriter is Logger over a fresh JSON logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, "info", loc))
}

func requestID(c *fiber.Ctx) string {
	rid, _ := c.Locals(RequestIDLocalKey).(string)
	return rid
}

// statusOf resolves the status the error handler will write for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
