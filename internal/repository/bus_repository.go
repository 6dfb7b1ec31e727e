package repository

import (
	"context"
	"strings"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const busColumns = `id, bus_number, route, description, image_url, fare, timings, stops, created_at, updated_at`

// BusRepository handles bus route data access.
type BusRepository struct {
	pool *pgxpool.Pool
}

// NewBusRepository creates a new BusRepository.
func NewBusRepository(pool *pgxpool.Pool) *BusRepository {
	return &BusRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBus(row rowScanner) (*model.Bus, error) {
	b := &model.Bus{}
	if err := row.Scan(&b.ID, &b.BusNumber, &b.Route, &b.Description, &b.ImageURL,
		&b.Fare, &b.Timings, &b.Stops, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if b.Stops == nil {
		b.Stops = []string{}
	}
	return b, nil
}

func collectBuses(rows pgx.Rows) ([]model.Bus, error) {
	defer rows.Close()

	buses := []model.Bus{}
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, err
		}
		buses = append(buses, *b)
	}
	return buses, rows.Err()
}

// ListAll returns every bus, newest first.
func (r *BusRepository) ListAll(ctx context.Context) ([]model.Bus, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+busColumns+` FROM buses ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collectBuses(rows)
}

// GetByNumber retrieves a bus by its unique bus number.
func (r *BusRepository) GetByNumber(ctx context.Context, busNumber string) (*model.Bus, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+busColumns+` FROM buses WHERE bus_number = $1`, busNumber)
	b, err := scanBus(row)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// ListByNumbers returns the buses whose numbers are listed, in the order of
// the input. Unknown numbers are skipped.
func (r *BusRepository) ListByNumbers(ctx context.Context, numbers []string) ([]model.Bus, error) {
	if len(numbers) == 0 {
		return []model.Bus{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+busColumns+` FROM buses WHERE bus_number = ANY($1)`, numbers)
	if err != nil {
		return nil, err
	}
	found, err := collectBuses(rows)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[string]model.Bus, len(found))
	for _, b := range found {
		byNumber[b.BusNumber] = b
	}
	ordered := make([]model.Bus, 0, len(found))
	for _, n := range numbers {
		if b, ok := byNumber[n]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// SearchByRoute returns buses whose route contains the given text,
// ignoring case. LIKE wildcards in the input match literally.
func (r *BusRepository) SearchByRoute(ctx context.Context, text string) ([]model.Bus, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+busColumns+` FROM buses
		 WHERE route ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY created_at DESC, id DESC`, EscapeLike(text))
	if err != nil {
		return nil, err
	}
	return collectBuses(rows)
}

// Create inserts a new bus and fills in the generated columns.
func (r *BusRepository) Create(ctx context.Context, b *model.Bus) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO buses (bus_number, route, description, image_url, fare, timings, stops)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		b.BusNumber, b.Route, b.Description, b.ImageURL, b.Fare, b.Timings, b.Stops,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return translate(err)
}

// Update applies a partial update and returns the updated bus together with
// the image URL it had before the update.
func (r *BusRepository) Update(ctx context.Context, busNumber string, p model.BusPatch) (*model.Bus, string, error) {
	var stops any
	if p.Stops != nil {
		stops = p.Stops
	}

	var previousImage string
	b := &model.Bus{}
	err := r.pool.QueryRow(ctx,
		`WITH prev AS (
			SELECT id, image_url FROM buses WHERE bus_number = $7 FOR UPDATE
		 )
		 UPDATE buses b SET
			route       = COALESCE($1, b.route),
			description = COALESCE($2, b.description),
			fare        = COALESCE($3, b.fare),
			timings     = COALESCE($4, b.timings),
			stops       = COALESCE($5::text[], b.stops),
			image_url   = COALESCE($6, b.image_url),
			updated_at  = NOW()
		 FROM prev
		 WHERE b.id = prev.id
		 RETURNING b.id, b.bus_number, b.route, b.description, b.image_url, b.fare, b.timings, b.stops,
		           b.created_at, b.updated_at, prev.image_url`,
		p.Route, p.Description, p.Fare, p.Timings, stops, p.ImageURL, busNumber,
	).Scan(&b.ID, &b.BusNumber, &b.Route, &b.Description, &b.ImageURL, &b.Fare, &b.Timings, &b.Stops,
		&b.CreatedAt, &b.UpdatedAt, &previousImage)
	if err != nil {
		return nil, "", translate(err)
	}
	return b, previousImage, nil
}

// Delete removes a bus and returns the image URL it referenced.
func (r *BusRepository) Delete(ctx context.Context, busNumber string) (string, error) {
	var imageURL string
	err := r.pool.QueryRow(ctx,
		`DELETE FROM buses WHERE bus_number = $1 RETURNING image_url`, busNumber,
	).Scan(&imageURL)
	if err != nil {
		return "", translate(err)
	}
	return imageURL, nil
}

// EscapeLike escapes the LIKE metacharacters so the text matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
