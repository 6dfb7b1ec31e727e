package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/response"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/busseva/busseva-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the image size limit.
const multipartOverhead = 1 << 20

// BusHandler handles bus route endpoints.
type BusHandler struct {
	busService *service.BusService
	maxUpload  int64
	log        zerolog.Logger
}

// NewBusHandler creates a new BusHandler.
func NewBusHandler(busService *service.BusService, maxUpload int64, log zerolog.Logger) *BusHandler {
	return &BusHandler{
		busService: busService,
		maxUpload:  maxUpload,
		log:        log.With().Str("component", "bus_handler").Logger(),
	}
}

// List godoc
// GET /api/buses
// Returns all buses, newest first. With ?numbers=a,b only those buses are
// returned, in the order given.
func (h *BusHandler) List(c *gin.Context) {
	var (
		buses []model.Bus
		err   error
	)

	if raw, ok := c.GetQuery("numbers"); ok {
		numbers := model.ParseBusNumbers(raw)
		if len(numbers) == 0 {
			response.SuccessList(c, http.StatusOK, []model.Bus{}, 0)
			return
		}
		buses, err = h.busService.ListByNumbers(c.Request.Context(), numbers)
	} else {
		buses, err = h.busService.ListAll(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	if buses == nil {
		buses = []model.Bus{}
	}
	response.SuccessList(c, http.StatusOK, buses, len(buses))
}

// Get godoc
// GET /api/buses/:busNumber
func (h *BusHandler) Get(c *gin.Context) {
	bus, err := h.busService.GetByNumber(c.Request.Context(), c.Param("busNumber"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, bus)
}

// Search godoc
// GET /api/buses/search/:route
func (h *BusHandler) Search(c *gin.Context) {
	buses, err := h.busService.SearchByRoute(c.Request.Context(), c.Param("route"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if buses == nil {
		buses = []model.Bus{}
	}
	response.SuccessList(c, http.StatusOK, buses, len(buses))
}

// Create godoc
// POST /api/buses
// Multipart form with an "image" file part.
func (h *BusHandler) Create(c *gin.Context, admin *service.AdminIdentity) {
	if !h.parseForm(c) {
		return
	}

	var req model.CreateBusRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeImage()

	bus, err := h.busService.Create(c.Request.Context(), req, image)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().Str("admin", admin.Username).Str("bus_number", bus.BusNumber).Msg("Bus created by admin")
	response.Success(c, http.StatusCreated, bus)
}

// Update godoc
// PUT /api/buses/:id
// Multipart form; every field and the image are optional.
func (h *BusHandler) Update(c *gin.Context, admin *service.AdminIdentity) {
	if !h.parseForm(c) {
		return
	}

	var req model.UpdateBusRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeImage()

	bus, err := h.busService.Update(c.Request.Context(), c.Param("id"), req, image)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().Str("admin", admin.Username).Str("bus_number", bus.BusNumber).Msg("Bus updated by admin")
	response.Success(c, http.StatusOK, bus)
}

// Delete godoc
// DELETE /api/buses/:id
func (h *BusHandler) Delete(c *gin.Context, admin *service.AdminIdentity) {
	busNumber := c.Param("id")
	if err := h.busService.Delete(c.Request.Context(), busNumber); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().Str("admin", admin.Username).Str("bus_number", busNumber).Msg("Bus deleted by admin")
	response.Success(c, http.StatusOK, gin.H{"message": "bus deleted successfully", "busNumber": busNumber})
}

// parseForm caps the request body and parses a multipart form if one was
// sent. It writes the error response and returns false on failure.
func (h *BusHandler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	err := c.Request.ParseMultipartForm(multipartOverhead)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		return false
	}
	response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidPayload, err.Error())
	return false
}

// formImage returns the "image" file part, or nil when none was sent.
func formImage(c *gin.Context) (*model.ImageUpload, func(), error) {
	if c.Request.MultipartForm == nil {
		return nil, func() {}, nil
	}

	file, header, err := c.Request.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	upload := &model.ImageUpload{Reader: file, Filename: header.Filename, Size: header.Size}
	return upload, func() { file.Close() }, nil
}

func (h *BusHandler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
	case errors.Is(err, service.ErrBusNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrDuplicateBusNumber):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrFileRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
	default:
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Bus request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
