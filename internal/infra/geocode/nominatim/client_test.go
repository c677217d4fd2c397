package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
)

func TestReverse(t *testing.T) {
	var userAgent, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"lat":"28.61","lon":"77.20","display_name":"Janpath, Connaught Place, New Delhi, Delhi, India","address":{"road":"Janpath","city":"New Delhi"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	place, err := client.Reverse(context.Background(), 28.61, 77.20)
	require.NoError(t, err)
	require.Equal(t, "/reverse", path)
	require.Equal(t, defaultUserAgent, userAgent)
	require.Equal(t, "New Delhi", place.Name)
	require.InDelta(t, 28.61, place.Latitude, 1e-9)

	name, err := client.CityName(context.Background(), 28.61, 77.20)
	require.NoError(t, err)
	require.Equal(t, "New Delhi", name)
}

func TestReverseNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "test", time.Second).Reverse(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"19.07","lon":"72.87","display_name":"Mumbai Suburban, Maharashtra, India","address":{"county":"Mumbai Suburban"}}]`))
	}))
	defer srv.Close()

	places, err := NewClient(srv.URL, "test", time.Second).Search(context.Background(), "mumbai", 1)
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.Equal(t, "Mumbai Suburban", places[0].Name)
}

func TestShortNameFallsBackToDisplayName(t *testing.T) {
	require.Equal(t, "Somewhere", shortName(nil, "Somewhere, Region"))
	require.Equal(t, "Town", shortName(map[string]string{"town": "Town", "county": "County"}, "x"))
}

func TestVerifyCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "atlantis" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"48.85","lon":"2.35","display_name":"Paris, Ile-de-France, France","address":{"city":"Paris"}}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test", time.Second)
	name, err := client.VerifyCity(context.Background(), "paris")
	require.NoError(t, err)
	require.Equal(t, "Paris", name)

	_, err = client.VerifyCity(context.Background(), "atlantis")
	require.ErrorIs(t, err, advisor.ErrLocationNotFound)
}
