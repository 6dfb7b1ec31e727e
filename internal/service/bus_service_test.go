package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/storage"
	"github.com/busseva/busseva-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBusFixture(t *testing.T) (*BusService, *testutil.MemoryBusStore, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := testutil.Config(dir)
	media := NewMediaService(cfg, storage.NewLocalStore(dir, cfg.UploadURLPath))
	store := testutil.NewMemoryBusStore()
	return NewBusService(store, media, zerolog.Nop()), store, dir
}

func fare(v float64) *float64 { return &v }
func str(v string) *string     { return &v }

func cityLoop() model.CreateBusRequest {
	return model.CreateBusRequest{
		Route:       "12A",
		Description: "City loop",
		Fare:        fare(15),
		Timings:     "6am-10pm",
		Stops:       " A, B ,C",
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestCreate_ThenGet(t *testing.T) {
	svc, _, _ := newBusFixture(t)
	ctx := context.Background()

	req := cityLoop()
	req.BusNumber = "S12"
	created, err := svc.Create(ctx, req, upload("bus.jpg", testutil.JPEG(1024)))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, created.Stops)
	assert.NotEmpty(t, created.ImageURL)

	got, err := svc.GetByNumber(ctx, "S12")
	require.NoError(t, err)
	assert.Equal(t, created.Route, got.Route)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Fare, got.Fare)
	assert.Equal(t, created.Timings, got.Timings)
	assert.Equal(t, created.Stops, got.Stops)
	assert.Equal(t, created.ImageURL, got.ImageURL)
}

func TestCreate_GeneratesBusNumber(t *testing.T) {
	svc, _, _ := newBusFixture(t)

	created, err := svc.Create(context.Background(), cityLoop(), upload("bus.jpg", testutil.JPEG(512)))
	require.NoError(t, err)
	assert.Regexp(t, `^BUS[0-9A-F]{8}$`, created.BusNumber)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, dir := newBusFixture(t)

	req := cityLoop()
	req.Stops = " , ,"
	req.Route = "   "
	_, err := svc.Create(context.Background(), req, upload("bus.jpg", testutil.JPEG(512)))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "stops")
	assert.Contains(t, ve.Fields, "route")
	assert.Zero(t, countFiles(t, dir))
}

func TestCreate_RequiresImage(t *testing.T) {
	svc, _, _ := newBusFixture(t)

	_, err := svc.Create(context.Background(), cityLoop(), nil)
	assert.ErrorIs(t, err, ErrFileRequired)
}

func TestCreate_DuplicateRemovesUpload(t *testing.T) {
	svc, _, dir := newBusFixture(t)
	ctx := context.Background()

	req := cityLoop()
	req.BusNumber = "S12"
	_, err := svc.Create(ctx, req, upload("bus.jpg", testutil.JPEG(512)))
	require.NoError(t, err)
	require.Equal(t, 1, countFiles(t, dir))

	_, err = svc.Create(ctx, req, upload("bus.jpg", testutil.JPEG(512)))
	assert.ErrorIs(t, err, ErrDuplicateBusNumber)
	assert.Equal(t, 1, countFiles(t, dir), "orphaned upload left behind")
}

func TestCreate_StoreFailureRemovesUpload(t *testing.T) {
	svc, store, dir := newBusFixture(t)
	store.CreateErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), cityLoop(), upload("bus.jpg", testutil.JPEG(512)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateBusNumber)
	assert.Zero(t, countFiles(t, dir))
}

func TestUpdate_PartialKeepsImage(t *testing.T) {
	svc, _, _ := newBusFixture(t)
	ctx := context.Background()

	req := cityLoop()
	req.BusNumber = "S12"
	created, err := svc.Create(ctx, req, upload("bus.jpg", testutil.JPEG(512)))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "S12", model.UpdateBusRequest{
		Fare:  fare(20),
		Stops: str("Esplanade, Howrah"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 20.0, updated.Fare)
	assert.Equal(t, []string{"Esplanade", "Howrah"}, updated.Stops)
	assert.Equal(t, created.Route, updated.Route)
	assert.Equal(t, created.ImageURL, updated.ImageURL)
}

func TestUpdate_NewImageReplacesOld(t *testing.T) {
	svc, _, dir := newBusFixture(t)
	ctx := context.Background()

	req := cityLoop()
	req.BusNumber = "S12"
	created, err := svc.Create(ctx, req, upload("bus.jpg", testutil.JPEG(512)))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "S12", model.UpdateBusRequest{}, upload("new.png", testutil.PNG(512)))
	require.NoError(t, err)

	assert.NotEqual(t, created.ImageURL, updated.ImageURL)
	assert.Equal(t, 1, countFiles(t, dir))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(updated.ImageURL)))
	assert.NoError(t, err)
}

func TestUpdate_UnknownBusRemovesUpload(t *testing.T) {
	svc, _, dir := newBusFixture(t)

	_, err := svc.Update(context.Background(), "NOPE", model.UpdateBusRequest{}, upload("new.png", testutil.PNG(512)))
	assert.ErrorIs(t, err, ErrBusNotFound)
	assert.Zero(t, countFiles(t, dir))
}

func TestUpdate_EmptyStopsRejected(t *testing.T) {
	svc, _, _ := newBusFixture(t)

	_, err := svc.Update(context.Background(), "S12", model.UpdateBusRequest{Stops: str(",")}, nil)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDelete_IdempotentNotFound(t *testing.T) {
	svc, _, dir := newBusFixture(t)
	ctx := context.Background()

	req := cityLoop()
	req.BusNumber = "S12"
	_, err := svc.Create(ctx, req, upload("bus.jpg", testutil.JPEG(512)))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "S12"))
	assert.Zero(t, countFiles(t, dir))

	assert.ErrorIs(t, svc.Delete(ctx, "S12"), ErrBusNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "S12"), ErrBusNotFound)
}

func TestSearchByRoute_CaseInsensitive(t *testing.T) {
	svc, store, _ := newBusFixture(t)
	ctx := context.Background()

	store.Put(model.Bus{BusNumber: "1", Route: "City Centre - Airport", Stops: []string{"A"}})
	store.Put(model.Bus{BusNumber: "2", Route: "Suburb Express", Stops: []string{"B"}})

	lower, err := svc.SearchByRoute(ctx, "city")
	require.NoError(t, err)
	upper, err := svc.SearchByRoute(ctx, "CITY")
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
	require.Len(t, lower, 1)
	assert.Equal(t, "1", lower[0].BusNumber)

	none, err := svc.SearchByRoute(ctx, "harbour")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestListAll_NewestFirst(t *testing.T) {
	svc, store, _ := newBusFixture(t)

	store.Put(model.Bus{BusNumber: "old", Route: "R1", Stops: []string{"A"}})
	store.Put(model.Bus{BusNumber: "new", Route: "R2", Stops: []string{"B"}})

	buses, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, buses, 2)
	assert.Equal(t, "new", buses[0].BusNumber)
	assert.Equal(t, "old", buses[1].BusNumber)
}
