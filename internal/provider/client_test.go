package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(serverURL string) *Client {
	c := NewClient(serverURL, "test-key", 5*time.Second)
	c.retryDelay = time.Millisecond
	return c
}

func TestFetchCountries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/countries", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-apisports-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"errors": [],
			"response": [
				{"name": "England", "code": "GB", "flag": "https://flags.test/gb.svg"},
				{"name": "Narnia", "code": "", "flag": ""}
			]
		}`))
	}))
	defer server.Close()

	records, err := testClient(server.URL).FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "GB", records[0].ExternalID, "Code is the external id when present")
	assert.Equal(t, "England", records[0].Name)
	assert.Equal(t, "Narnia", records[1].ExternalID, "Name backs up a missing code")
}

func TestGetRetriesOnTooManyRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"errors": [], "response": []}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchCountries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls), "429 responses should be retried")
}

func TestGetDoesNotRetryAuthFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchCountries(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "Auth failures must not be retried")
}

func TestGetEnvelopeSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": {"token": "Invalid API key"}, "response": []}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchCountries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestFetchSeasonsFlattensLeaguePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leagues", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"errors": [],
			"response": [
				{
					"league": {"id": 39, "name": "Premier League", "type": "League", "logo": ""},
					"country": {"name": "England", "code": "GB", "flag": ""},
					"seasons": [
						{"year": 2024, "start": "2024-08-10", "end": "2025-05-25", "current": false},
						{"year": 2025, "start": "2025-08-09", "end": "2026-05-24", "current": true}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	records, err := testClient(server.URL).FetchSeasons(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "39:2024", records[0].ExternalID)
	assert.Equal(t, "39", records[0].LeagueExternalID)
	assert.Equal(t, "39:2025", records[1].ExternalID)
	assert.True(t, records[1].Current)
}

func TestFetchFixturesBetween(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fixtures", r.URL.Path)
		assert.Equal(t, "2026-08-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-08-31", r.URL.Query().Get("to"))

		_, _ = w.Write([]byte(`{
			"errors": [],
			"response": [
				{
					"fixture": {"id": 1001, "date": "2026-08-15T14:00:00+00:00", "status": {"short": "FT"}},
					"league": {"id": 39, "season": 2026, "round": "Regular Season - 1"},
					"teams": {"home": {"id": 33}, "away": {"id": 34}},
					"goals": {"home": 2, "away": 1},
					"score": {
						"halftime": {"home": 1, "away": 0},
						"fulltime": {"home": 2, "away": 1},
						"extratime": {"home": null, "away": null},
						"penalty": {"home": null, "away": null}
					}
				}
			]
		}`))
	}))
	defer server.Close()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	records, err := testClient(server.URL).FetchFixturesBetween(context.Background(), from, to, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "1001", rec.ExternalID)
	assert.Equal(t, "39", rec.LeagueExternalID)
	assert.Equal(t, "39:2026", rec.SeasonExternalID)
	assert.Equal(t, "33", rec.HomeTeamExternalID)
	assert.Equal(t, "34", rec.AwayTeamExternalID)
	assert.Equal(t, "FT", rec.State)
	require.NotNil(t, rec.HomeGoals)
	assert.Equal(t, 2, *rec.HomeGoals)
	require.NotNil(t, rec.HalftimeHome)
	assert.Equal(t, 1, *rec.HalftimeHome)
	assert.Nil(t, rec.ExtraHome)
}
