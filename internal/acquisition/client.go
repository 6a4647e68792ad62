// Package acquisition talks to the Landsat acquisition-schedule API: a
// token-auth JSON service that predicts when the satellite will pass over a
// coordinate.
package acquisition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultQueryMargin is the half-width, in degrees, of the bounding box
	// built around a point coordinate. The upstream API only accepts a
	// minimum-bounding-rectangle filter, not a point query.
	DefaultQueryMargin = 0.1

	defaultTimeout = 10 * time.Second
	defaultDataset = "landsat_8_9"
)

// ErrAuth marks a failed credential/token handshake. The notification cycle
// skips the current location on this error instead of treating it as an
// empty schedule.
var ErrAuth = errors.New("acquisition: authentication failed")

type Credentials struct {
	Username string
	Password string
}

// Window is the temporal range of an overpass query. The upstream API works
// at day granularity, so only the dates of Start and End are sent.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overpass is a single predicted pass. CloudCover is the forecast cloud
// cover percentage; HasCloudCover is false when the scene record carried no
// usable value.
type Overpass struct {
	Time          time.Time
	CloudCover    float64
	HasCloudCover bool
}

type Config struct {
	BaseURL     string
	Credentials Credentials
	Dataset     string
	Margin      float64
	Client      *http.Client
}

// Client queries the acquisition-schedule API. Tokens are short-lived, so
// every query re-authenticates rather than caching the token across cycles.
type Client struct {
	baseURL string
	creds   Credentials
	dataset string
	margin  float64
	client  *http.Client
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("acquisition API base URL is required")
	}
	if cfg.Credentials.Username == "" || cfg.Credentials.Password == "" {
		return nil, fmt.Errorf("acquisition API credentials are required")
	}
	dataset := cfg.Dataset
	if dataset == "" {
		dataset = defaultDataset
	}
	margin := cfg.Margin
	if margin <= 0 {
		margin = DefaultQueryMargin
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		creds:   cfg.Credentials,
		dataset: dataset,
		margin:  margin,
		client:  client,
	}, nil
}

// Authenticate posts the credentials to the login endpoint and returns a
// bearer token for subsequent search calls.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": c.creds.Username,
		"password": c.creds.Password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// A transport failure here is a reachability problem, not a credential
	// problem, so it is not wrapped as ErrAuth.
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrAuth)
	}
	return body.Token, nil
}

// Overpasses returns the predicted passes over (lat, lon) within the window,
// sorted ascending by time. Callers rely on index 0 being the soonest pass.
func (c *Client) Overpasses(ctx context.Context, lat, lon float64, w Window) ([]Overpass, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return c.search(ctx, token, lat, lon, w)
}

// OverpassesBelowCloud is the cloud-filtering variant of Overpasses: scenes
// whose forecast cloud cover exceeds maxCloud are dropped, as are scenes
// without a parsable cloud-cover value (logged as a warning, never an error).
func (c *Client) OverpassesBelowCloud(ctx context.Context, lat, lon float64, w Window, maxCloud float64) ([]Overpass, error) {
	passes, err := c.Overpasses(ctx, lat, lon, w)
	if err != nil {
		return nil, err
	}

	filtered := passes[:0]
	for _, p := range passes {
		if !p.HasCloudCover {
			log.WithFields(log.Fields{
				"time": p.Time,
				"lat":  lat,
				"lon":  lon,
			}).Warn("scene without usable cloud cover dropped from filtered query")
			continue
		}
		if p.CloudCover <= maxCloud {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

type sceneRecord struct {
	AcquisitionDate string          `json:"acquisition_date"`
	CloudCover      json.RawMessage `json:"cloud_cover"`
}

type searchRequest struct {
	Dataset   string        `json:"dataset"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Bounds    spatialBounds `json:"bounds"`
}

type spatialBounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

func (c *Client) search(ctx context.Context, token string, lat, lon float64, w Window) ([]Overpass, error) {
	payload, err := json.Marshal(searchRequest{
		Dataset:   c.dataset,
		StartDate: w.Start.Format("2006-01-02"),
		EndDate:   w.End.Format("2006-01-02"),
		Bounds: spatialBounds{
			MinLat: lat - c.margin,
			MaxLat: lat + c.margin,
			MinLon: lon - c.margin,
			MaxLon: lon + c.margin,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scene-search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scene search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("scene search failed: status %d", resp.StatusCode)
	}

	var body struct {
		Results []sceneRecord `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode scene search response: %w", err)
	}

	passes := make([]Overpass, 0, len(body.Results))
	for _, rec := range body.Results {
		ts, err := parseAcquisitionDate(rec.AcquisitionDate)
		if err != nil {
			log.WithField("acquisition_date", rec.AcquisitionDate).
				Warn("skipping scene with malformed acquisition date")
			continue
		}
		cover, ok := parseCloudCover(rec.CloudCover)
		passes = append(passes, Overpass{Time: ts, CloudCover: cover, HasCloudCover: ok})
	}

	sort.Slice(passes, func(i, j int) bool { return passes[i].Time.Before(passes[j].Time) })
	return passes, nil
}

// parseAcquisitionDate accepts the two formats the upstream API is known to
// emit: "2006-01-02 15:04:05" and ISO-8601 with a Z suffix.
func parseAcquisitionDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty acquisition date")
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// parseCloudCover tolerates numbers, quoted numbers, and garbage like "n/a".
// The second return value reports whether a usable percentage was found.
func parseCloudCover(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
