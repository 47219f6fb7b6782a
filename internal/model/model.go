package model

import "time"

// Event is one display-ready calendar entry. All strings are rendered in the
// configured display timezone.
type Event struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`

	// Date is the sortable YYYY-MM-DD key of the start.
	Date          string `json:"date"`
	DateFormatted string `json:"date_formatted"`

	// StartTime / EndTime are empty for all-day events.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	AllDay    bool   `json:"all_day"`

	Location   *string `json:"location"`
	CalendarID string  `json:"calendar_id"`

	// Start is the resolved start instant, used for ordering only.
	Start time.Time `json:"-"`
}

// WeatherSnapshot is an all-or-nothing weather aggregate.
type WeatherSnapshot struct {
	Current Current `json:"current"`
	Today   Today   `json:"today"`
	Hourly  []Hour  `json:"hourly"`
	Daily   []Day   `json:"daily"`
}

// Current holds instant conditions.
type Current struct {
	Temp        int    `json:"temp"`
	FeelsLike   int    `json:"feels_like"`
	Humidity    int    `json:"humidity"`
	WeatherCode int    `json:"weather_code"`
	Condition   string `json:"condition"`
}

// Today summarizes the current day. MaxUV / MaxAQI cover the hourly window.
type Today struct {
	High    int      `json:"high"`
	Low     int      `json:"low"`
	Sunrise string   `json:"sunrise"`
	Sunset  string   `json:"sunset"`
	MaxUV   *float64 `json:"max_uv"`
	MaxAQI  *int     `json:"max_aqi"`
}

// Hour is one entry of the rolling 24-hour window.
type Hour struct {
	// Time is the local hour start (RFC 3339).
	Time         string   `json:"time"`
	Hour         string   `json:"hour"`
	Temp         int      `json:"temp"`
	PrecipChance int      `json:"precip_chance"`
	WindSpeed    int      `json:"wind_speed"`
	WindDir      string   `json:"wind_dir"`
	UV           *float64 `json:"uv"`
	AQI          *int     `json:"aqi"`
	Icon         string   `json:"icon"`
	Condition    string   `json:"condition"`
}

// Day is one entry of the outlook starting tomorrow.
type Day struct {
	Date         string `json:"date"`
	High         int    `json:"high"`
	Low          int    `json:"low"`
	PrecipChance int    `json:"precip_chance"`
}

// Payload is the response served to the display.
type Payload struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Timezone    string           `json:"timezone"`
	EventCount  int              `json:"event_count"`
	Events      []Event          `json:"events"`
	Weather     *WeatherSnapshot `json:"weather"`
}
