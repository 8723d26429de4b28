package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/pdash/dashboard-gateway/internal/gateway"
)

// OpenWeather implements gateway.AirClient: air quality and reverse
// geocoding, the two extras Open-Meteo does not cover here.
type OpenWeather struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeather(client *http.Client, apiKey, baseURL string) *OpenWeather {
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeather) AirQuality(ctx context.Context, lat, lon float64) (*gateway.AirQuality, error) {
	if p.apiKey == "" {
		return nil, &NotConfiguredError{Var: "OPENWEATHER_API_KEY"}
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", p.apiKey)

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components struct {
				CO   float64 `json:"co"`
				NO2  float64 `json:"no2"`
				O3   float64 `json:"o3"`
				PM25 float64 `json:"pm2_5"`
				PM10 float64 `json:"pm10"`
			} `json:"components"`
		} `json:"list"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openweather", p.baseURL+"/data/2.5/air_pollution?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("openweather returned no air quality data")
	}

	entry := payload.List[0]
	return &gateway.AirQuality{
		AQI:  entry.Main.AQI,
		CO:   entry.Components.CO,
		NO2:  entry.Components.NO2,
		O3:   entry.Components.O3,
		PM25: entry.Components.PM25,
		PM10: entry.Components.PM10,
	}, nil
}

func (p *OpenWeather) ReverseGeocode(ctx context.Context, lat, lon float64) (*gateway.City, error) {
	if p.apiKey == "" {
		return nil, &NotConfiguredError{Var: "OPENWEATHER_API_KEY"}
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("limit", "1")
	values.Set("appid", p.apiKey)

	var payload []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		State   string  `json:"state"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openweather", p.baseURL+"/geo/1.0/reverse?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("openweather returned no place for %.2f,%.2f", lat, lon)
	}

	return &gateway.City{
		Name:    payload[0].Name,
		Country: payload[0].Country,
		Admin1:  payload[0].State,
		Lat:     payload[0].Lat,
		Lon:     payload[0].Lon,
	}, nil
}
