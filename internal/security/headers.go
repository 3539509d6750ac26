package security

import "github.com/gin-gonic/gin"

// HeadersMiddleware sets the response security headers. The engine serves
// sensitive psychological-risk data to API clients only, so framing and
// content sniffing are denied outright and caching of responses is disabled.
func HeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Assessment payloads must never land in shared caches.
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
