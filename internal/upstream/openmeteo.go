package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/normalize"
)

// OpenMeteo implements gateway.WeatherClient against the keyless Open-Meteo
// forecast, archive and geocoding APIs.
type OpenMeteo struct {
	baseURL    string
	geoURL     string
	archiveURL string
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenMeteo(client *http.Client, baseURL, geoURL, archiveURL string) *OpenMeteo {
	return &OpenMeteo{
		baseURL:    baseURL,
		geoURL:     geoURL,
		archiveURL: archiveURL,
		client:     client,
		circuit:    newBreaker("openmeteo"),
	}
}

func (p *OpenMeteo) Current(ctx context.Context, lat, lon float64) (*gateway.CurrentWeather, error) {
	values := coordValues(lat, lon)
	values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_direction_10m,weather_code,is_day")
	values.Set("timezone", "auto")

	var payload struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			FeelsLike     float64 `json:"apparent_temperature"`
			Humidity      int     `json:"relative_humidity_2m"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection int     `json:"wind_direction_10m"`
			WeatherCode   int     `json:"weather_code"`
			IsDay         int     `json:"is_day"`
		} `json:"current"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openmeteo", p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	info := normalize.WeatherCode(payload.Current.WeatherCode)
	return &gateway.CurrentWeather{
		Time:          payload.Current.Time,
		Temperature:   normalize.Round1(payload.Current.Temperature),
		FeelsLike:     normalize.Round1(payload.Current.FeelsLike),
		Humidity:      payload.Current.Humidity,
		WindSpeed:     normalize.Round1(payload.Current.WindSpeed),
		WindDirection: payload.Current.WindDirection,
		Code:          payload.Current.WeatherCode,
		Description:   info.Description,
		Icon:          info.Icon,
		IsDay:         payload.Current.IsDay == 1,
	}, nil
}

func (p *OpenMeteo) Forecast(ctx context.Context, lat, lon float64) ([]gateway.ForecastDay, error) {
	values := coordValues(lat, lon)
	values.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code,precipitation_probability_max")
	values.Set("forecast_days", "7")
	values.Set("timezone", "auto")

	var payload struct {
		Daily struct {
			Time        []string  `json:"time"`
			TempMax     []float64 `json:"temperature_2m_max"`
			TempMin     []float64 `json:"temperature_2m_min"`
			WeatherCode []int     `json:"weather_code"`
			PrecipProb  []int     `json:"precipitation_probability_max"`
		} `json:"daily"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openmeteo", p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	days := make([]gateway.ForecastDay, 0, len(payload.Daily.Time))
	for i, date := range payload.Daily.Time {
		day := gateway.ForecastDay{Date: date}
		if i < len(payload.Daily.TempMax) {
			day.TempMax = normalize.Round1(payload.Daily.TempMax[i])
		}
		if i < len(payload.Daily.TempMin) {
			day.TempMin = normalize.Round1(payload.Daily.TempMin[i])
		}
		if i < len(payload.Daily.PrecipProb) {
			day.PrecipProb = payload.Daily.PrecipProb[i]
		}
		if i < len(payload.Daily.WeatherCode) {
			day.Code = payload.Daily.WeatherCode[i]
			info := normalize.WeatherCode(day.Code)
			day.Description = info.Description
			day.Icon = info.Icon
		}
		days = append(days, day)
	}
	return days, nil
}

func (p *OpenMeteo) Hourly(ctx context.Context, lat, lon float64) ([]gateway.HourlyPoint, error) {
	values := coordValues(lat, lon)
	values.Set("hourly", "temperature_2m,weather_code,precipitation_probability")
	values.Set("forecast_hours", "24")
	values.Set("timezone", "auto")

	var payload struct {
		Hourly struct {
			Time        []string  `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
			WeatherCode []int     `json:"weather_code"`
			PrecipProb  []int     `json:"precipitation_probability"`
		} `json:"hourly"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openmeteo", p.baseURL+"?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	points := make([]gateway.HourlyPoint, 0, len(payload.Hourly.Time))
	for i, ts := range payload.Hourly.Time {
		point := gateway.HourlyPoint{Time: ts}
		if i < len(payload.Hourly.Temperature) {
			point.Temperature = normalize.Round1(payload.Hourly.Temperature[i])
		}
		if i < len(payload.Hourly.PrecipProb) {
			point.PrecipProb = payload.Hourly.PrecipProb[i]
		}
		if i < len(payload.Hourly.WeatherCode) {
			point.Code = payload.Hourly.WeatherCode[i]
			info := normalize.WeatherCode(point.Code)
			point.Description = info.Description
			point.Icon = info.Icon
		}
		points = append(points, point)
	}
	return points, nil
}

func (p *OpenMeteo) Historical(ctx context.Context, lat, lon float64, date string) (*gateway.HistoricalDay, error) {
	values := coordValues(lat, lon)
	values.Set("start_date", date)
	values.Set("end_date", date)
	values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	values.Set("timezone", "auto")

	var payload struct {
		Daily struct {
			Time        []string  `json:"time"`
			TempMax     []float64 `json:"temperature_2m_max"`
			TempMin     []float64 `json:"temperature_2m_min"`
			Precip      []float64 `json:"precipitation_sum"`
			WeatherCode []int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openmeteo", p.archiveURL+"?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Daily.Time) == 0 {
		return nil, fmt.Errorf("openmeteo archive returned no data for %s", date)
	}

	day := &gateway.HistoricalDay{Date: payload.Daily.Time[0]}
	if len(payload.Daily.TempMax) > 0 {
		day.TempMax = normalize.Round1(payload.Daily.TempMax[0])
	}
	if len(payload.Daily.TempMin) > 0 {
		day.TempMin = normalize.Round1(payload.Daily.TempMin[0])
	}
	if len(payload.Daily.Precip) > 0 {
		day.Precip = normalize.Round1(payload.Daily.Precip[0])
	}
	if len(payload.Daily.WeatherCode) > 0 {
		day.Code = payload.Daily.WeatherCode[0]
		info := normalize.WeatherCode(day.Code)
		day.Description = info.Description
		day.Icon = info.Icon
	}
	return day, nil
}

func (p *OpenMeteo) SearchCities(ctx context.Context, query string, limit int) ([]gateway.City, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", fmt.Sprintf("%d", limit))

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Admin1    string  `json:"admin1"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "openmeteo", p.geoURL+"/search?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	cities := make([]gateway.City, 0, len(payload.Results))
	for _, r := range payload.Results {
		cities = append(cities, gateway.City{
			Name:    r.Name,
			Country: r.Country,
			Admin1:  r.Admin1,
			Lat:     r.Latitude,
			Lon:     r.Longitude,
		})
	}
	return cities, nil
}

func coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	return values
}
