package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bus service errors.
var (
	ErrBusNotFound        = errors.New("bus not found")
	ErrDuplicateBusNumber = errors.New("bus number already exists")
)

// ValidationError reports per-field problems with a write request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BusService handles bus route business logic.
type BusService struct {
	buses BusStore
	media *MediaService
	log   zerolog.Logger
}

// NewBusService creates a new BusService.
func NewBusService(buses BusStore, media *MediaService, log zerolog.Logger) *BusService {
	return &BusService{
		buses: buses,
		media: media,
		log:   log.With().Str("component", "bus_service").Logger(),
	}
}

// ListAll returns every bus, newest first.
func (s *BusService) ListAll(ctx context.Context) ([]model.Bus, error) {
	return s.buses.ListAll(ctx)
}

// ListByNumbers returns the buses for the given numbers in the given order.
func (s *BusService) ListByNumbers(ctx context.Context, numbers []string) ([]model.Bus, error) {
	return s.buses.ListByNumbers(ctx, numbers)
}

// GetByNumber fetches one bus.
func (s *BusService) GetByNumber(ctx context.Context, busNumber string) (*model.Bus, error) {
	b, err := s.buses.GetByNumber(ctx, busNumber)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return b, nil
}

// SearchByRoute matches the text anywhere in the route name, ignoring case.
func (s *BusService) SearchByRoute(ctx context.Context, text string) ([]model.Bus, error) {
	return s.buses.SearchByRoute(ctx, text)
}

// Create validates the request, stores the image and inserts the bus.
// The stored image is deleted again if the insert fails.
func (s *BusService) Create(ctx context.Context, req model.CreateBusRequest, image *model.ImageUpload) (*model.Bus, error) {
	bus := &model.Bus{
		BusNumber:   strings.TrimSpace(req.BusNumber),
		Route:       strings.TrimSpace(req.Route),
		Description: strings.TrimSpace(req.Description),
		Timings:     strings.TrimSpace(req.Timings),
		Stops:       model.ParseStops(req.Stops),
	}
	if req.Fare != nil {
		bus.Fare = *req.Fare
	}

	fields := map[string]string{}
	requireText(fields, "route", bus.Route)
	requireText(fields, "description", bus.Description)
	requireText(fields, "timings", bus.Timings)
	if req.Fare == nil {
		fields["fare"] = "fare is a required field"
	} else if bus.Fare < 0 {
		fields["fare"] = "fare must be 0 or greater"
	}
	if len(bus.Stops) == 0 {
		fields["stops"] = "stops must list at least one stop"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if image == nil {
		return nil, ErrFileRequired
	}

	if bus.BusNumber == "" {
		bus.BusNumber = generateBusNumber()
	}

	stored, err := s.media.Accept(ctx, image)
	if err != nil {
		return nil, err
	}
	bus.ImageURL = stored.URL

	if err := s.buses.Create(ctx, bus); err != nil {
		s.discard(ctx, stored)
		return nil, mapStoreErr(err)
	}

	s.log.Info().Str("bus_number", bus.BusNumber).Str("image", stored.Name).Msg("Bus created")
	return bus, nil
}

// Update applies the present fields to the bus. A new image replaces the old
// one, which is then removed from storage.
func (s *BusService) Update(ctx context.Context, busNumber string, req model.UpdateBusRequest, image *model.ImageUpload) (*model.Bus, error) {
	var patch model.BusPatch
	fields := map[string]string{}

	if req.Route != nil {
		v := strings.TrimSpace(*req.Route)
		requireText(fields, "route", v)
		patch.Route = &v
	}
	if req.Description != nil {
		v := strings.TrimSpace(*req.Description)
		requireText(fields, "description", v)
		patch.Description = &v
	}
	if req.Timings != nil {
		v := strings.TrimSpace(*req.Timings)
		requireText(fields, "timings", v)
		patch.Timings = &v
	}
	if req.Fare != nil {
		if *req.Fare < 0 {
			fields["fare"] = "fare must be 0 or greater"
		}
		patch.Fare = req.Fare
	}
	if req.Stops != nil {
		patch.Stops = model.ParseStops(*req.Stops)
		if len(patch.Stops) == 0 {
			fields["stops"] = "stops must list at least one stop"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var stored *model.StoredFile
	if image != nil {
		var err error
		if stored, err = s.media.Accept(ctx, image); err != nil {
			return nil, err
		}
		patch.ImageURL = &stored.URL
	}

	if patch.IsEmpty() {
		return s.GetByNumber(ctx, busNumber)
	}

	updated, previousImage, err := s.buses.Update(ctx, busNumber, patch)
	if err != nil {
		s.discard(ctx, stored)
		return nil, mapStoreErr(err)
	}

	if stored != nil && previousImage != "" && previousImage != updated.ImageURL {
		if err := s.media.DiscardURL(ctx, previousImage); err != nil {
			s.log.Warn().Err(err).Str("image", previousImage).Msg("Failed to remove replaced image")
		}
	}

	s.log.Info().Str("bus_number", busNumber).Bool("new_image", stored != nil).Msg("Bus updated")
	return updated, nil
}

// Delete removes the bus and its stored image.
func (s *BusService) Delete(ctx context.Context, busNumber string) error {
	imageURL, err := s.buses.Delete(ctx, busNumber)
	if err != nil {
		return mapStoreErr(err)
	}

	if err := s.media.DiscardURL(ctx, imageURL); err != nil {
		s.log.Warn().Err(err).Str("image", imageURL).Msg("Failed to remove image of deleted bus")
	}

	s.log.Info().Str("bus_number", busNumber).Msg("Bus deleted")
	return nil
}

func (s *BusService) discard(ctx context.Context, f *model.StoredFile) {
	if f == nil {
		return
	}
	if err := s.media.Discard(ctx, f); err != nil {
		s.log.Error().Err(err).Str("image", f.Name).Msg("Failed to remove orphaned upload")
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBusNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrDuplicateBusNumber
	default:
		return fmt.Errorf("bus store: %w", err)
	}
}

func requireText(fields map[string]string, name, value string) {
	if value == "" {
		fields[name] = name + " must not be empty"
	}
}

func generateBusNumber() string {
	return "BUS" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
