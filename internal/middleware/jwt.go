package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/busseva/busseva-backend/internal/response"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AdminHandlerFunc is a handler that runs only for a verified admin.
type AdminHandlerFunc func(c *gin.Context, admin *service.AdminIdentity)

// WithAdmin wraps h so it is only invoked with a verified admin identity.
// Requests without a token get TOKEN_REQUIRED, bad or expired tokens get
// TOKEN_INVALID. Both answer 401.
func WithAdmin(authService *service.AuthService, h AdminHandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := authenticate(c, authService)
		if !ok {
			return
		}
		h(c, admin)
	}
}

func authenticate(c *gin.Context, authService *service.AuthService) (*service.AdminIdentity, bool) {
	admin, err := authService.VerifyToken(bearerToken(c))
	if err != nil {
		code := response.ErrTokenInvalid
		if errors.Is(err, service.ErrMissingToken) {
			code = response.ErrTokenRequired
		}
		response.AbortFail(c, http.StatusUnauthorized, code)
		return nil, false
	}
	return admin, true
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	// A header in any other shape is a malformed token, not a missing one.
	return authHeader
}
