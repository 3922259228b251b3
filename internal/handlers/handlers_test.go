package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"emperror.dev/errors"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idgaron/Capstone-Software/internal/models"
)

type stubCache struct {
	err     error
	latest  *models.Frame
	history []models.Frame
	asked   int64
}

func (c *stubCache) Ping(context.Context) error {
	return c.err
}

func (c *stubCache) LatestFrame(context.Context) (models.Frame, bool, error) {
	if c.err != nil || c.latest == nil {
		return models.Frame{}, false, c.err
	}
	return *c.latest, true, nil
}

func (c *stubCache) History(_ context.Context, count int64) ([]models.Frame, error) {
	c.asked = count
	if c.err != nil {
		return nil, c.err
	}
	if int64(len(c.history)) > count {
		return c.history[:count], nil
	}
	return c.history, nil
}

func testFrame() models.Frame {
	return models.Frame{
		Seq:      2,
		Pushes:   50,
		TimeAxis: []float64{0, 1, 2, 3},
		Samples:  []float64{0, 1, 0, -1},
		Spectrum: models.Spectrum{
			Frequencies: []float64{0, 1, 2, 3},
			Magnitudes:  []float64{0, 2, 0, 2},
		},
		Peak:  models.Peak{Bin: 1, Frequency: 1, Magnitude: 2},
		Stats: models.WindowStats{Mean: 0, StdDev: 0.8, Count: 4},
	}
}

func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func TestHandlers_NoFrameYet(t *testing.T) {
	h := NewHandler(NewFrameStore(), nil)

	for _, path := range []string{"/frame", "/spectrum", "/samples"} {
		rec := serve(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestFrameHandler(t *testing.T) {
	store := NewFrameStore()
	require.NoError(t, store.Update(context.Background(), testFrame()))
	h := NewHandler(store, nil)

	rec := serve(t, h, "/frame")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got models.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(2), got.Seq)
	assert.Equal(t, []float64{0, 2, 0, 2}, got.Spectrum.Magnitudes)
}

func TestSpectrumHandler(t *testing.T) {
	store := NewFrameStore()
	require.NoError(t, store.Update(context.Background(), testFrame()))

	rec := serve(t, NewHandler(store, nil), "/spectrum")
	require.Equal(t, http.StatusOK, rec.Code)

	var got SpectrumResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []float64{0, 1, 2, 3}, got.Frequencies)
	assert.Equal(t, 1, got.Peak.Bin)
}

func TestSamplesHandler_Count(t *testing.T) {
	store := NewFrameStore()
	require.NoError(t, store.Update(context.Background(), testFrame()))
	h := NewHandler(store, nil)

	rec := serve(t, h, "/samples?count=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var got SamplesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []float64{0, -1}, got.Samples)
	assert.Equal(t, []float64{2, 3}, got.TimeAxis)

	rec = serve(t, h, "/samples?count=100")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Samples, 4)

	rec = serve(t, h, "/samples?count=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name  string
		cache FrameCache
		want  string
	}{
		{"without redis", nil, "disabled"},
		{"redis up", &stubCache{}, "connected"},
		{"redis down", &stubCache{err: errors.NewPlain("dial tcp: refused")}, "disconnected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, NewHandler(NewFrameStore(), tc.cache), "/health")
			require.Equal(t, http.StatusOK, rec.Code)

			var got models.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "healthy", got.Status)
			assert.Equal(t, tc.want, got.Redis)
		})
	}
}

func TestStatsHandler(t *testing.T) {
	store := NewFrameStore()
	require.NoError(t, store.Update(context.Background(), testFrame()))
	require.NoError(t, store.Update(context.Background(), testFrame()))

	rec := serve(t, NewHandler(store, nil), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(2), got.Frames)
	assert.Equal(t, uint64(50), got.Pushes)
	assert.Equal(t, 4, got.WindowSize)
	assert.Equal(t, 4, got.Bins)
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/frame", nil)
	rec := httptest.NewRecorder()
	NewRouter(NewHandler(NewFrameStore(), nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFrameHandler_FallsBackToCache(t *testing.T) {
	cached := testFrame()
	cached.Seq = 41
	h := NewHandler(NewFrameStore(), &stubCache{latest: &cached})

	rec := serve(t, h, "/frame")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(41), got.Seq)

	rec = serve(t, NewHandler(NewFrameStore(), &stubCache{}), "/frame")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistoryHandler(t *testing.T) {
	newer, older := testFrame(), testFrame()
	newer.Seq, older.Seq = 5, 4
	cache := &stubCache{history: []models.Frame{newer, older}}
	h := NewHandler(NewFrameStore(), cache)

	rec := serve(t, h, "/frames")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(defaultHistoryCount), cache.asked)

	var got []models.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(5), got[0].Seq)

	rec = serve(t, h, "/frames?count=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	for _, bad := range []string{"0", "-3", "x", "5000"} {
		rec = serve(t, h, "/frames?count="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestHistoryHandler_CacheUnavailable(t *testing.T) {
	rec := serve(t, NewHandler(NewFrameStore(), nil), "/frames")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	broken := &stubCache{err: errors.NewPlain("connection reset")}
	rec = serve(t, NewHandler(NewFrameStore(), broken), "/frames")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
