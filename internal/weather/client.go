package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client is the HTTP forecast provider. The upstream API is provider-neutral:
// any service returning hourly samples of {temperature_f, humidity,
// conditions, wind_mph, time} works.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds the HTTP provider. A zero timeout defaults to 5 s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type forecastResponse struct {
	Samples []struct {
		TemperatureF float64   `json:"temperature_f"`
		Humidity     float64   `json:"humidity"`
		Conditions   string    `json:"conditions"`
		WindMph      float64   `json:"wind_mph"`
		Time         time.Time `json:"time"`
	} `json:"samples"`
}

// GetForecast fetches hourly samples and returns the one closest to
// targetTime. One retry on transient failure.
func (c *Client) GetForecast(ctx context.Context, city, state string, targetTime time.Time) (*Reading, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("state", state)
	q.Set("date", targetTime.Format("2006-01-02"))

	var resp forecastResponse
	if err := c.getJSON(ctx, "/v1/forecast", q, &resp); err != nil {
		return nil, err
	}

	samples := make([]Reading, 0, len(resp.Samples))
	for _, s := range resp.Samples {
		samples = append(samples, Reading{
			TemperatureF: s.TemperatureF,
			Humidity:     s.Humidity,
			Conditions:   s.Conditions,
			WindMph:      s.WindMph,
			At:           s.Time,
		})
	}
	r := ClosestReading(samples, targetTime)
	if r == nil {
		return nil, fmt.Errorf("no forecast samples for %s, %s on %s", city, state, targetTime.Format("2006-01-02"))
	}
	r.HeatIndexF = HeatIndexF(r.TemperatureF, r.Humidity)
	return r, nil
}

type currentResponse struct {
	TemperatureF float64   `json:"temperature_f"`
	Humidity     float64   `json:"humidity"`
	Conditions   string    `json:"conditions"`
	WindMph      float64   `json:"wind_mph"`
	Time         time.Time `json:"time"`
}

// GetCurrent fetches current conditions.
func (c *Client) GetCurrent(ctx context.Context, city, state string) (*Reading, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("state", state)

	var resp currentResponse
	if err := c.getJSON(ctx, "/v1/current", q, &resp); err != nil {
		return nil, err
	}
	return &Reading{
		TemperatureF: resp.TemperatureF,
		Humidity:     resp.Humidity,
		HeatIndexF:   HeatIndexF(resp.TemperatureF, resp.Humidity),
		Conditions:   resp.Conditions,
		WindMph:      resp.WindMph,
		At:           resp.Time,
	}, nil
}

// getJSON performs the request with one bounded retry on transient failure.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("key", c.apiKey)
	u := c.baseURL + path + "?" + q.Encode()

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode weather response: %w", err))
			}
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("weather provider returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("weather provider returned %d", resp.StatusCode))
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	return backoff.Retry(op, policy)
}

// --------------------------------------------------------------------------
// Deterministic mock for tests and local development
// --------------------------------------------------------------------------

// Mock is a deterministic provider returning canned samples.
type Mock struct {
	Samples []Reading
	Current *Reading
	Err     error
}

func (m *Mock) GetForecast(_ context.Context, _, _ string, targetTime time.Time) (*Reading, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r := ClosestReading(m.Samples, targetTime)
	if r == nil {
		return nil, fmt.Errorf("mock has no samples")
	}
	return r, nil
}

func (m *Mock) GetCurrent(context.Context, string, string) (*Reading, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Current != nil {
		return m.Current, nil
	}
	if len(m.Samples) > 0 {
		return &m.Samples[0], nil
	}
	return nil, fmt.Errorf("mock has no samples")
}
