package model

import (
	"io"
	"strings"
	"time"
)

// Bus is a published bus line. Stops are ordered: the first entry is the
// origin and the last one the terminus.
type Bus struct {
	ID          int64     `json:"id"`
	BusNumber   string    `json:"busNumber"`
	Route       string    `json:"route"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Fare        float64   `json:"fare"`
	Timings     string    `json:"timings"`
	Stops       []string  `json:"stops"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BusPatch carries a partial update. Nil fields are left untouched.
type BusPatch struct {
	Route       *string
	Description *string
	Fare        *float64
	Timings     *string
	Stops       []string
	ImageURL    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p BusPatch) IsEmpty() bool {
	return p.Route == nil && p.Description == nil && p.Fare == nil &&
		p.Timings == nil && p.Stops == nil && p.ImageURL == nil
}

// CreateBusRequest is the multipart form payload for creating a bus.
// The image travels as the "image" file part.
type CreateBusRequest struct {
	BusNumber   string   `form:"busNumber" json:"busNumber" binding:"omitempty,max=32,busnumber"`
	Route       string   `form:"route" json:"route" binding:"required,max=200"`
	Description string   `form:"description" json:"description" binding:"required,max=2000"`
	Fare        *float64 `form:"fare" json:"fare" binding:"required,gte=0"`
	Timings     string   `form:"timings" json:"timings" binding:"required,max=200"`
	Stops       string   `form:"stops" json:"stops" binding:"required"`
}

// UpdateBusRequest is the multipart form payload for updating a bus.
// Absent fields keep their stored value.
type UpdateBusRequest struct {
	Route       *string  `form:"route" json:"route" binding:"omitempty,min=1,max=200"`
	Description *string  `form:"description" json:"description" binding:"omitempty,min=1,max=2000"`
	Fare        *float64 `form:"fare" json:"fare" binding:"omitempty,gte=0"`
	Timings     *string  `form:"timings" json:"timings" binding:"omitempty,min=1,max=200"`
	Stops       *string  `form:"stops" json:"stops" binding:"omitempty,min=1"`
}

// ImageUpload is an image file received with a write request.
type ImageUpload struct {
	Reader   io.ReadSeeker
	Filename string
	Size     int64
}

// StoredFile references a blob persisted by the media service.
type StoredFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ParseStops splits a comma-delimited stop list, trimming each entry and
// dropping empty ones. Order is preserved.
func ParseStops(raw string) []string {
	parts := strings.Split(raw, ",")
	stops := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stops = append(stops, s)
		}
	}
	return stops
}

// ParseBusNumbers splits a comma-delimited list of bus numbers as sent by the
// favorites page, dropping blanks and duplicates while keeping order.
func ParseBusNumbers(raw string) []string {
	seen := make(map[string]struct{})
	var numbers []string
	for _, n := range ParseStops(raw) {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}
	return numbers
}
