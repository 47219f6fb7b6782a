package weather

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"inkcal/internal/config"
	"inkcal/internal/httputil"
)

const (
	forecastService   = "open_meteo_forecast"
	airQualityService = "open_meteo_air_quality"

	forecastDays   = 8
	airQualityDays = 2

	currentFields = "temperature_2m,relative_humidity_2m,weather_code,apparent_temperature"
	hourlyFields  = "temperature_2m,precipitation_probability,wind_speed_10m,wind_direction_10m,weather_code"
	dailyFields   = "temperature_2m_max,temperature_2m_min,precipitation_probability_max,sunrise,sunset"
	aqFields      = "us_aqi,uv_index"
)

// ForecastResponse is the subset of the Open-Meteo forecast payload in use.
// Every numeric value is a pointer so a JSON null stays distinguishable
// from zero.
type ForecastResponse struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
		FeelsLike   *float64 `json:"apparent_temperature"`
		Humidity    *float64 `json:"relative_humidity_2m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		PrecipChance  []*float64 `json:"precipitation_probability"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindDirection []*float64 `json:"wind_direction_10m"`
		WeatherCode   []*int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Time         []string   `json:"time"`
		TempMax      []*float64 `json:"temperature_2m_max"`
		TempMin      []*float64 `json:"temperature_2m_min"`
		PrecipChance []*float64 `json:"precipitation_probability_max"`
		Sunrise      []string   `json:"sunrise"`
		Sunset       []string   `json:"sunset"`
	} `json:"daily"`
}

// AirQualityResponse is the subset of the Open-Meteo air-quality payload in
// use. Its hourly series is indexed independently of the forecast's.
type AirQualityResponse struct {
	Hourly struct {
		Time    []string   `json:"time"`
		USAQI   []*float64 `json:"us_aqi"`
		UVIndex []*float64 `json:"uv_index"`
	} `json:"hourly"`
}

// Client queries the Open-Meteo forecast and air-quality endpoints.
type Client struct {
	client   *http.Client
	cfg      config.WeatherConfig
	timezone string
}

// NewClient creates a client for cfg. timezone is sent upstream so that all
// returned timestamps are local to the display timezone.
func NewClient(cfg config.WeatherConfig, timezone string, client *http.Client) *Client {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Client{client: client, cfg: cfg, timezone: timezone}
}

func (c *Client) baseParams() url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.cfg.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.cfg.Longitude, 'f', -1, 64))
	q.Set("timezone", c.timezone)
	return q
}

// Forecast fetches current conditions plus hourly and daily series.
func (c *Client) Forecast(ctx context.Context) (*ForecastResponse, error) {
	q := c.baseParams()
	q.Set("temperature_unit", c.cfg.TemperatureUnit)
	q.Set("wind_speed_unit", c.cfg.WindSpeedUnit)
	q.Set("current", currentFields)
	q.Set("hourly", hourlyFields)
	q.Set("daily", dailyFields)
	q.Set("forecast_days", strconv.Itoa(forecastDays))

	var out ForecastResponse
	if err := httputil.GetJSON(ctx, c.client, forecastService, c.cfg.ForecastURL+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AirQuality fetches the hourly US AQI and UV index series.
func (c *Client) AirQuality(ctx context.Context) (*AirQualityResponse, error) {
	q := c.baseParams()
	q.Set("hourly", aqFields)
	q.Set("forecast_days", strconv.Itoa(airQualityDays))

	var out AirQualityResponse
	if err := httputil.GetJSON(ctx, c.client, airQualityService, c.cfg.AirQualityURL+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
