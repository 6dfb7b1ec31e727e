package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/busseva/busseva-backend/internal/response"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// storeAttemptTimeout bounds one bootstrap attempt made on behalf of a request.
var storeAttemptTimeout = 5 * time.Second

// RequireStore makes sure the store bootstrap (schema and default admin)
// has completed before the request reaches a handler. While the store is
// unreachable each request retries the bootstrap and fails with
// STORE_UNAVAILABLE.
func RequireStore(b *service.Bootstrapper, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if b.Ready() {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), storeAttemptTimeout)
		err := b.Ensure(ctx)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Store bootstrap failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrStoreUnavailable)
			return
		}

		c.Next()
	}
}
