package handler

import (
	"errors"
	"net/http"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/response"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/busseva/busseva-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	adminService *service.AdminService
	log          zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	adminService *service.AdminService,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		adminService: adminService,
		log:          log.With().Str("component", "auth_handler").Logger(),
	}
}

// AdminLogin godoc
// POST /api/admin/login
// Validates username + password, returns a JWT valid for 24 hours.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	issued, err := h.authService.IssueToken(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn().Str("username", req.Username).Str("client_ip", c.ClientIP()).Msg("Failed admin login")
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Admin login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AdminLoginResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Admin:     *issued.Admin,
	})
}

// AdminMe godoc
// GET /api/admin/me
// Returns the profile of the currently authenticated admin.
func (h *AuthHandler) AdminMe(c *gin.Context, identity *service.AdminIdentity) {
	admin, err := h.adminService.GetByID(c.Request.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"admin":      admin,
		"expires_at": identity.ExpiresAt,
	})
}
