package acquisition

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, scenes []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds["username"] != "svc" || creds["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
		case "/scene-search":
			if r.Header.Get("X-Auth-Token") != "test-token" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"results": scenes})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:     baseURL,
		Credentials: Credentials{Username: "svc", Password: "pw"},
	})
	require.NoError(t, err)
	return c
}

func testWindow() Window {
	start := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Credentials: Credentials{Username: "u", Password: "p"}})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://example.com"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://example.com/", Credentials: Credentials{Username: "u", Password: "p"}})
	assert.NoError(t, err)
	assert.Equal(t, "http://example.com", c.baseURL)
	assert.Equal(t, DefaultQueryMargin, c.margin)
	assert.Equal(t, defaultDataset, c.dataset)
}

func TestAuthenticate(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	token, err := c.Authenticate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "test-token", token)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c, err := New(Config{
		BaseURL:     srv.URL,
		Credentials: Credentials{Username: "svc", Password: "wrong"},
	})
	require.NoError(t, err)

	_, err = c.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
}

func TestOverpasses_SortedAscending(t *testing.T) {
	srv := newTestServer(t, []map[string]interface{}{
		{"acquisition_date": "2026-09-02 10:30:00", "cloud_cover": 12.0},
		{"acquisition_date": "2026-09-01T08:15:00Z", "cloud_cover": 5.0},
		{"acquisition_date": "2026-09-03 11:45:00"},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	passes, err := c.Overpasses(context.Background(), 41.0, 29.0, testWindow())
	require.NoError(t, err)
	require.Len(t, passes, 3)

	assert.Equal(t, time.Date(2026, 9, 1, 8, 15, 0, 0, time.UTC), passes[0].Time)
	assert.Equal(t, time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC), passes[1].Time)
	assert.Equal(t, time.Date(2026, 9, 3, 11, 45, 0, 0, time.UTC), passes[2].Time)

	assert.True(t, passes[0].HasCloudCover)
	assert.Equal(t, 5.0, passes[0].CloudCover)
	assert.False(t, passes[2].HasCloudCover)
}

func TestOverpasses_SkipsMalformedDates(t *testing.T) {
	srv := newTestServer(t, []map[string]interface{}{
		{"acquisition_date": "not-a-date", "cloud_cover": 1.0},
		{"acquisition_date": "", "cloud_cover": 2.0},
		{"acquisition_date": "2026-09-01 08:15:00", "cloud_cover": 3.0},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	passes, err := c.Overpasses(context.Background(), 41.0, 29.0, testWindow())
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, 3.0, passes[0].CloudCover)
}

func TestOverpassesBelowCloud_Filtering(t *testing.T) {
	srv := newTestServer(t, []map[string]interface{}{
		{"acquisition_date": "2026-09-01 08:00:00", "cloud_cover": 10.0},
		{"acquisition_date": "2026-09-02 08:00:00", "cloud_cover": 20.0},
		{"acquisition_date": "2026-09-03 08:00:00", "cloud_cover": "n/a"},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	passes, err := c.OverpassesBelowCloud(context.Background(), 41.0, 29.0, testWindow(), 15.0)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, 10.0, passes[0].CloudCover)
}

func TestOverpassesBelowCloud_QuotedNumericCover(t *testing.T) {
	srv := newTestServer(t, []map[string]interface{}{
		{"acquisition_date": "2026-09-01 08:00:00", "cloud_cover": "7.5"},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	passes, err := c.OverpassesBelowCloud(context.Background(), 41.0, 29.0, testWindow(), 15.0)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, 7.5, passes[0].CloudCover)
}

func TestOverpasses_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Overpasses(context.Background(), 41.0, 29.0, testWindow())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuth)
}

func TestOverpasses_ServerDown(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Overpasses(context.Background(), 41.0, 29.0, testWindow())
	assert.Error(t, err)
}

func TestSearch_SendsBoundingBoxAndDates(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Overpasses(context.Background(), 41.0, 29.0, testWindow())
	require.NoError(t, err)

	assert.Equal(t, "landsat_8_9", got.Dataset)
	assert.Equal(t, "2026-08-31", got.StartDate)
	assert.Equal(t, "2026-09-01", got.EndDate)
	assert.InDelta(t, 40.9, got.Bounds.MinLat, 1e-9)
	assert.InDelta(t, 41.1, got.Bounds.MaxLat, 1e-9)
	assert.InDelta(t, 28.9, got.Bounds.MinLon, 1e-9)
	assert.InDelta(t, 29.1, got.Bounds.MaxLon, 1e-9)
}
