package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/metrics"
)

var _ adapter.Geocoder = (*YandexClient)(nil)

// YandexClient resolves coordinates into an address with the Yandex
// geocoder HTTP API (format=json, version 1.x responses).
type YandexClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewYandexClient(baseURL, apiKey string, timeout time.Duration) *YandexClient {
	if baseURL == "" {
		baseURL = "https://geocode-maps.yandex.ru/1.x"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YandexClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Reverse resolves lat/lon into a Place. When the geocoder has no object
// for the point it returns domain.ErrUnresolved.
func (c *YandexClient) Reverse(ctx context.Context, lat, lon float64) (*model.Place, error) {
	start := time.Now()
	place, err := c.reverse(ctx, lat, lon)
	metrics.ObserveGatewayCall("geocoder", "reverse", start, ignoreUnresolved(err))
	return place, err
}

func (c *YandexClient) reverse(ctx context.Context, lat, lon float64) (*model.Place, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("format", "json")
	// Yandex wants "lon,lat" order.
	q.Set("geocode", fmt.Sprintf("%f,%f", lon, lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	members := payload.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return nil, domain.ErrUnresolved
	}

	obj := members[0].GeoObject
	meta := obj.MetaDataProperty.GeocoderMetaData
	place := &model.Place{
		CountryCode: meta.Address.CountryCode,
		Address:     obj.Name,
	}
	for _, comp := range meta.Address.Components {
		if comp.Kind == "locality" {
			place.Region = comp.Name
			break
		}
	}
	return place, nil
}

func ignoreUnresolved(err error) error {
	if err == domain.ErrUnresolved {
		return nil
	}
	return err
}

// Response shapes, trimmed to the fields we read.
type geocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject geoObject `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

type geoObject struct {
	Name             string `json:"name"`
	MetaDataProperty struct {
		GeocoderMetaData struct {
			Address struct {
				CountryCode string `json:"country_code"`
				Components  []struct {
					Kind string `json:"kind"`
					Name string `json:"name"`
				} `json:"Components"`
			} `json:"Address"`
		} `json:"GeocoderMetaData"`
	} `json:"metaDataProperty"`
}
