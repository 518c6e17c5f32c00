package middleware

import (
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. Query strings are left out
// since they may carry search terms.
func RequestLogger(log zerolog.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Dur("duration", time.Since(start))
		if owner := GetOwner(c); !owner.IsZero() {
			evt = evt.Str("owner_id", owner.ID.String())
		}
		evt.Msg("request")
	}
}
