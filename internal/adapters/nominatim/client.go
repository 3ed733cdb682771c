// Package nominatim implements ports.Geocoder against a Nominatim (OSM)
// server.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/telemetry"
)

// DefaultBaseURL is the public OSM instance. Its usage policy requires an
// identifying User-Agent and at most one request per second.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Options configures a Client.
type Options struct {
	BaseURL       string
	UserAgent     string
	Language      string  // Accept-Language, e.g. "en"
	Timeout       time.Duration
	RatePerSecond float64 // <= 0 disables client-side limiting
	Limit         int     // results requested per forward lookup
}

// Client is a Nominatim HTTP client.
type Client struct {
	baseURL   string
	userAgent string
	language  string
	limit     int
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Limit <= 0 {
		opts.Limit = 1
	}

	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		language:  opts.Language,
		limit:     opts.Limit,
		http:      &http.Client{Timeout: opts.Timeout},
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return c
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// reverseResult is a place, or {"error": "Unable to geocode"} when nothing is
// near the point.
type reverseResult struct {
	place
	Error string `json:"error"`
}

// Forward looks up address. Results with unparseable coordinates are skipped.
func (c *Client) Forward(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(c.limit))

	var places []place
	if err := c.get(ctx, "forward", "/search", params, &places); err != nil {
		return nil, err
	}

	points := make([]domain.GeoPoint, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		points = append(points, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	return points, nil
}

// Reverse returns the display name of the place at point, if any.
func (c *Client) Reverse(ctx context.Context, point domain.GeoPoint) ([]string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(point.Lon, 'f', -1, 64))
	params.Set("format", "jsonv2")
	params.Set("zoom", "18")

	var res reverseResult
	if err := c.get(ctx, "reverse", "/reverse", params, &res); err != nil {
		return nil, err
	}
	if res.Error != "" || strings.TrimSpace(res.DisplayName) == "" {
		return nil, nil
	}
	return []string{res.DisplayName}, nil
}

func (c *Client) get(ctx context.Context, kind, path string, params url.Values, out any) (err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "nominatim."+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.AttrGeocodeKind.String(kind)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("nominatim rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim upstream error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode nominatim payload: %w", err)
	}
	return nil
}
