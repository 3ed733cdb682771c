package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheControlFor picks the default Cache-Control for a GET path.
func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready" || path == "/metrics":
		return "no-cache"
	case path == "/v1/geocode" || path == "/v1/reverse":
		// Geocoding answers change rarely and upstream is rate limited.
		return "public, max-age=300"
	case strings.HasPrefix(path, "/v1/sessions") || path == "/v1/apps":
		return "no-store"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=3600"
	default:
		return ""
	}
}

// CachingMiddleware sets Cache-Control on GET responses that have none and
// adds a weak ETag to cacheable 200 responses, answering 304 when the client
// already has it.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet {
			return nil
		}

		cc := string(c.Response().Header.Peek(fiber.HeaderCacheControl))
		if cc == "" {
			cc = cacheControlFor(c.Path())
			if cc != "" {
				c.Set(fiber.HeaderCacheControl, cc)
			}
		}

		if c.Response().StatusCode() != fiber.StatusOK || strings.Contains(cc, "no-store") {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		h := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(h[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
