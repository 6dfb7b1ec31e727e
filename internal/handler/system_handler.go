package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/busseva/busseva-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const healthPingTimeout = 2 * time.Second

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Endpoint describes one public API route for the index and 404 pages.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Auth        bool   `json:"auth"`
}

// Endpoints lists the API surface.
var Endpoints = []Endpoint{
	{http.MethodGet, "/api/buses", "List all buses, newest first (?numbers=a,b for a subset)", false},
	{http.MethodGet, "/api/buses/:busNumber", "Get one bus", false},
	{http.MethodGet, "/api/buses/search/:route", "Search buses by route name", false},
	{http.MethodPost, "/api/buses", "Create a bus (multipart, image required)", true},
	{http.MethodPut, "/api/buses/:id", "Update a bus (multipart, image optional)", true},
	{http.MethodDelete, "/api/buses/:id", "Delete a bus", true},
	{http.MethodPost, "/api/admin/login", "Admin login", false},
	{http.MethodGet, "/api/admin/me", "Current admin", true},
	{http.MethodGet, "/health", "Health check", false},
}

// SystemHandler serves the status, index, health and fallback routes.
type SystemHandler struct {
	db          Pinger
	ready       func() bool
	frontendDir string
	startTime   time.Time
	log         zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. ready reports whether the
// store bootstrap has completed.
func NewSystemHandler(db Pinger, ready func() bool, frontendDir string, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:          db,
		ready:       ready,
		frontendDir: frontendDir,
		startTime:   time.Now(),
		log:         log.With().Str("component", "system_handler").Logger(),
	}
}

// Root godoc
// GET /
// Serves the frontend index page when configured, a status payload otherwise.
func (h *SystemHandler) Root(c *gin.Context) {
	if h.serveFrontend(c, "/index.html") {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"service": "busseva",
		"status":  "running",
		"docs":    "/api",
	})
}

// APIIndex godoc
// GET /api
func (h *SystemHandler) APIIndex(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"endpoints": Endpoints})
}

// Health godoc
// GET /health
// Always answers 200 while the process is up; reports store reachability.
func (h *SystemHandler) Health(c *gin.Context) {
	database := "up"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Health check: database unreachable")
			database = "down"
		}
	}

	bootstrapped := h.ready == nil || h.ready()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	response.Success(c, http.StatusOK, gin.H{
		"status":       "ok",
		"database":     database,
		"bootstrapped": bootstrapped,
		"uptime":       formatDuration(time.Since(h.startTime)),
		"goroutines":   runtime.NumGoroutine(),
		"heap_alloc":   ms.HeapAlloc,
		"go_version":   runtime.Version(),
	})
}

// NotFound godoc
// Fallback for unknown routes. Frontend pages are served from disk when
// configured; everything else gets 404 with the endpoint list.
func (h *SystemHandler) NotFound(c *gin.Context) {
	path := c.Request.URL.Path
	if c.Request.Method == http.MethodGet && !strings.HasPrefix(path, "/api/") && h.serveFrontend(c, path) {
		return
	}

	c.JSON(http.StatusNotFound, response.Response{
		Error: &response.ErrorBody{
			Code:    response.ErrNotFound,
			Message: fmt.Sprintf("Route %s %s not found.", c.Request.Method, path),
		},
		Data:     gin.H{"endpoints": Endpoints},
		Metadata: response.Metadata{RequestID: response.RequestID(c), Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

// serveFrontend writes the named file from the frontend directory if it
// exists. Paths are cleaned so they cannot leave the directory.
func (h *SystemHandler) serveFrontend(c *gin.Context, name string) bool {
	if h.frontendDir == "" {
		return false
	}
	full := filepath.Join(h.frontendDir, filepath.FromSlash(filepath.Clean("/"+name)))
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	if info.IsDir() {
		full = filepath.Join(full, "index.html")
		if _, err := os.Stat(full); err != nil {
			return false
		}
	}
	c.File(full)
	return true
}

// ---------- Helpers ----------

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
