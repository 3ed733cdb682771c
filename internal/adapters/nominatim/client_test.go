package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

func TestClient_Forward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Times Square, New York", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "ridecompare-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte(`[{"lat":"40.7570095","lon":"-73.9859724","display_name":"Times Square"}]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/", UserAgent: "ridecompare-test/1.0", Language: "en"})
	points, err := c.Forward(context.Background(), "Times Square, New York")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, domain.GeoPoint{Lat: 40.7570095, Lon: -73.9859724}, points[0])
}

func TestClient_Forward_SkipsBadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"n/a","lon":"1"},{"lat":"1.5","lon":"2.5"}]`))
	}))
	defer srv.Close()

	points, err := New(Options{BaseURL: srv.URL}).Forward(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []domain.GeoPoint{{Lat: 1.5, Lon: 2.5}}, points)
}

func TestClient_Forward_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	points, err := New(Options{BaseURL: srv.URL}).Forward(context.Background(), "Nowhere 123")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).Forward(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "59.437", r.URL.Query().Get("lat"))
		assert.Equal(t, "24.7536", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`{"lat":"59.437","lon":"24.7536","display_name":"Raekoja plats, Tallinn"}`))
	}))
	defer srv.Close()

	lines, err := New(Options{BaseURL: srv.URL}).Reverse(context.Background(), domain.GeoPoint{Lat: 59.437, Lon: 24.7536})
	require.NoError(t, err)
	assert.Equal(t, []string{"Raekoja plats, Tallinn"}, lines)
}

func TestClient_Reverse_UnableToGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	lines, err := New(Options{BaseURL: srv.URL}).Reverse(context.Background(), domain.GeoPoint{Lat: 0, Lon: -150})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, RatePerSecond: 0.1})
	_, err := c.Forward(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Forward(ctx, "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
