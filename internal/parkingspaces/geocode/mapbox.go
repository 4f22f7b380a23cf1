package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/pkg/client"
	"pitstop/pkg/config"
	"pitstop/pkg/logger"
)

// Coordinates is a resolved address position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

type mapboxGeocoder struct {
	http     *client.HttpClient
	token    string
	country  string
	bbox     string
	minScore float64
	log      *logger.Logger
}

// NewMapboxGeocoder builds a geocoder against the Mapbox places API,
// constrained to street addresses inside the configured country and
// bounding box.
func NewMapboxGeocoder(cfg *config.Config) Geocoder {
	return &mapboxGeocoder{
		http:     client.NewHttpClient(cfg.MapboxBaseURL),
		token:    cfg.MapboxToken,
		country:  cfg.GeocodeCountry,
		bbox:     cfg.GeocodeBBox,
		minScore: cfg.GeocodeMinScore,
		log:      cfg.Log,
	}
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceType []string        `json:"place_type"`
	Relevance float64         `json:"relevance"`
	Center    []float64       `json:"center"`
	Context   []mapboxContext `json:"context"`
}

type mapboxContext struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Geocode distinguishes bad addresses (ErrAddressNotFound) from provider
// failures (ErrGeocoderUnavailable); callers map the former to a validation
// error and the latter to a 503.
func (g *mapboxGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is empty", spaceserrors.ErrAddressNotFound)
	}
	if g.token == "" {
		return nil, fmt.Errorf("%w: mapbox token is not configured", spaceserrors.ErrGeocoderUnavailable)
	}

	query := url.Values{}
	query.Set("access_token", g.token)
	query.Set("country", g.country)
	query.Set("types", "address")
	query.Set("limit", "1")
	query.Set("bbox", g.bbox)

	path := fmt.Sprintf("/geocoding/v5/mapbox.places/%s.json?%s",
		url.PathEscape(address), query.Encode())

	resp, err := g.http.GET(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spaceserrors.ErrGeocoderUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: provider returned status %d", spaceserrors.ErrGeocoderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: provider returned status %d", spaceserrors.ErrAddressNotFound, resp.StatusCode)
	}

	var data mapboxResponse
	if err := resp.DecodeJSON(&data); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", spaceserrors.ErrGeocoderUnavailable, err)
	}

	if len(data.Features) == 0 {
		return nil, fmt.Errorf("%w: no coordinates found for address", spaceserrors.ErrAddressNotFound)
	}

	feature := data.Features[0]
	if feature.Relevance < g.minScore {
		return nil, fmt.Errorf("%w: address match not confident enough (score %.2f)",
			spaceserrors.ErrAddressNotFound, feature.Relevance)
	}
	if err := validateFeature(feature); err != nil {
		return nil, err
	}
	if len(feature.Center) != 2 {
		return nil, fmt.Errorf("%w: malformed feature center", spaceserrors.ErrGeocoderUnavailable)
	}

	coords := &Coordinates{
		Latitude:  feature.Center[1],
		Longitude: feature.Center[0],
	}

	g.log.Debug("Address geocoded",
		"relevance", feature.Relevance,
		"latitude", coords.Latitude,
		"longitude", coords.Longitude,
	)
	return coords, nil
}

// validateFeature rejects matches that are not full street addresses with a
// postal code inside Ontario, Canada.
func validateFeature(feature mapboxFeature) error {
	isAddress := false
	for _, t := range feature.PlaceType {
		if t == "address" {
			isAddress = true
			break
		}
	}
	if !isAddress {
		return fmt.Errorf("%w: result is not a street address", spaceserrors.ErrAddressNotFound)
	}

	var hasPostcode, hasRegion, hasCountry bool
	for _, item := range feature.Context {
		switch {
		case strings.HasPrefix(item.ID, "postcode"):
			hasPostcode = true
		case strings.HasPrefix(item.ID, "region"):
			if item.Text == "Ontario" || item.Text == "ON" {
				hasRegion = true
			}
		case strings.HasPrefix(item.ID, "country"):
			if item.Text == "Canada" {
				hasCountry = true
			}
		}
	}

	if !hasPostcode {
		return fmt.Errorf("%w: address must include a postal code", spaceserrors.ErrAddressNotFound)
	}
	if !hasRegion {
		return fmt.Errorf("%w: address must be in Ontario", spaceserrors.ErrAddressNotFound)
	}
	if !hasCountry {
		return fmt.Errorf("%w: address must be in Canada", spaceserrors.ErrAddressNotFound)
	}
	return nil
}
