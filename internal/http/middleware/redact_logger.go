// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger is the access logger mounted by the router. Emails are
// the identity key of this service and show up in paths (/users/:email/role),
// queries (?author=) and headers, so every logged string passes through the
// scrubber. Bodies are never logged.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are extra headers replaced by "[REDACTED]" on top of
	// Authorization, Cookie and Set-Cookie. Case-insensitive.
	MaskHeaders []string
	// SkipPaths are routes that are not logged at all (e.g. /health).
	SkipPaths []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+(?:@|%40)[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only so the hex runs of a UUID are not mistaken for a number.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact scrubs UUIDs, emails (raw or URL-escaped) and phone numbers from s.
// UUIDs go first; the phone pattern would otherwise eat their digit groups.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger logs each request with PII scrubbed from the path, query
// and header values. It also attaches the request-scoped logger used by
// LoggerFrom, so it can replace Logger in the chain.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = Redact(c.Request.URL.Path)
		}
		query := Redact(c.Request.URL.RawQuery)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = Redact(strings.Join(vv, ", "))
		}

		l := log.With().Str("request_id", RequestIDFrom(c)).Str("path", path).Logger()
		c.Set(loggerKey, &l)

		c.Next()

		if _, ok := skip[c.FullPath()]; ok {
			return
		}
		user := ""
		if email := sessionEmail(c); email != "" {
			user = "[REDACTED:email]"
			if u, ok := CurrentUser(c); ok {
				user += ":" + string(u.Role)
			}
		}

		levelFor(&l, c).
			Str("method", c.Request.Method).
			Str("query", truncate(query, maxQueryLogLength)).
			Str("user", user).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
