package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/pkg/config"
	"pitstop/pkg/logger"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) Geocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewMapboxGeocoder(&config.Config{
		Log:             log,
		MapboxToken:     "test-token",
		MapboxBaseURL:   server.URL,
		GeocodeCountry:  config.DefaultGeocodeCountry,
		GeocodeBBox:     config.DefaultGeocodeBBox,
		GeocodeMinScore: config.DefaultGeocodeMinScore,
	})
}

const goodFeature = `{
	"features": [{
		"place_type": ["address"],
		"relevance": 0.95,
		"center": [-79.38, 43.65],
		"context": [
			{"id": "postcode.123", "text": "M5H 2N2"},
			{"id": "region.456", "text": "Ontario"},
			{"id": "country.789", "text": "Canada"}
		]
	}]
}`

func TestGeocode_Success(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_token"); got != "test-token" {
			t.Errorf("expected access token in query, got %q", got)
		}
		if got := r.URL.Query().Get("types"); got != "address" {
			t.Errorf("expected types=address, got %q", got)
		}
		w.Write([]byte(goodFeature))
	})

	coords, err := g.Geocode(context.Background(), "100 Queen St W, Toronto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coords.Latitude != 43.65 || coords.Longitude != -79.38 {
		t.Errorf("expected (43.65, -79.38), got (%g, %g)", coords.Latitude, coords.Longitude)
	}
}

func TestGeocode_NoResults(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	})

	_, err := g.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, spaceserrors.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got: %v", err)
	}
}

func TestGeocode_LowRelevance(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"features": [{
				"place_type": ["address"],
				"relevance": 0.5,
				"center": [-79.38, 43.65],
				"context": [
					{"id": "postcode.1", "text": "M5H 2N2"},
					{"id": "region.2", "text": "Ontario"},
					{"id": "country.3", "text": "Canada"}
				]
			}]
		}`))
	})

	_, err := g.Geocode(context.Background(), "vague address")
	if !errors.Is(err, spaceserrors.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound for low relevance, got: %v", err)
	}
}

func TestGeocode_NotAStreetAddress(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"features": [{
				"place_type": ["place"],
				"relevance": 0.99,
				"center": [-79.38, 43.65],
				"context": [
					{"id": "postcode.1", "text": "M5H 2N2"},
					{"id": "region.2", "text": "Ontario"},
					{"id": "country.3", "text": "Canada"}
				]
			}]
		}`))
	})

	_, err := g.Geocode(context.Background(), "Toronto")
	if !errors.Is(err, spaceserrors.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound for non-address result, got: %v", err)
	}
}

func TestGeocode_OutsideOntario(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"features": [{
				"place_type": ["address"],
				"relevance": 0.95,
				"center": [-123.1, 49.28],
				"context": [
					{"id": "postcode.1", "text": "V6B 1A1"},
					{"id": "region.2", "text": "British Columbia"},
					{"id": "country.3", "text": "Canada"}
				]
			}]
		}`))
	})

	_, err := g.Geocode(context.Background(), "700 Hamilton St, Vancouver")
	if !errors.Is(err, spaceserrors.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound outside Ontario, got: %v", err)
	}
}

func TestGeocode_ProviderError(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := g.Geocode(context.Background(), "100 Queen St W, Toronto")
	if !errors.Is(err, spaceserrors.ErrGeocoderUnavailable) {
		t.Fatalf("expected ErrGeocoderUnavailable, got: %v", err)
	}
}

func TestGeocode_EmptyAddress(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty address")
	})

	_, err := g.Geocode(context.Background(), "   ")
	if !errors.Is(err, spaceserrors.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got: %v", err)
	}
}

func TestGeocode_MissingToken(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	g := NewMapboxGeocoder(&config.Config{
		Log:           log,
		MapboxBaseURL: "http://127.0.0.1:0",
	})

	_, err := g.Geocode(context.Background(), "100 Queen St W, Toronto")
	if !errors.Is(err, spaceserrors.ErrGeocoderUnavailable) {
		t.Fatalf("expected ErrGeocoderUnavailable without token, got: %v", err)
	}
}
