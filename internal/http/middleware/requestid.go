package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the Fiber locals key holding the request id.
	RequestIDLocalKey = "request_id"

	maxRequestIDLen = 64
)

// RequestID reuses the caller's X-Request-ID when it is a short token of
// [A-Za-z0-9._-] and generates a UUID otherwise. The id is stored in locals
// and echoed on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

// validRequestID keeps client-supplied ids from smuggling arbitrary text into logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		b := id[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '-' || b == '_' || b == '.':
		default:
			return false
		}
	}
	return true
}
