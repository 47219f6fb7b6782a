package weather

import (
	"fmt"
	"math"
	"time"

	"inkcal/internal/model"
	"inkcal/internal/timefmt"
)

const (
	// hourLayout is Open-Meteo's local timestamp format ("2024-12-27T07:15").
	hourLayout = "2006-01-02T15:04"

	windowHours = 24
	outlookDays = 7
)

// FieldError reports a required upstream field that is missing, null or
// malformed. Any FieldError invalidates the whole snapshot.
type FieldError struct {
	Field string
	Index int
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather: field %s[%d]: %v", e.Field, e.Index, e.Err)
	}
	return fmt.Sprintf("weather: field %s[%d] missing", e.Field, e.Index)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Aggregate merges a forecast and an air-quality response into a snapshot.
// now is truncated to the start of its hour in loc; the hourly window starts
// at the first forecast hour at or after that point. It returns an error,
// and no snapshot, when any required field is absent.
func Aggregate(fc *ForecastResponse, aq *AirQualityResponse, now time.Time, loc *time.Location) (*model.WeatherSnapshot, error) {
	if fc == nil || aq == nil {
		return nil, &FieldError{Field: "response", Index: 0}
	}

	current, err := buildCurrent(fc)
	if err != nil {
		return nil, err
	}
	today, err := buildToday(fc, loc)
	if err != nil {
		return nil, err
	}
	hourly, err := buildHourly(fc, aq, now, loc)
	if err != nil {
		return nil, err
	}
	daily, err := buildDaily(fc, loc)
	if err != nil {
		return nil, err
	}

	today.MaxUV, today.MaxAQI = peaks(hourly)

	return &model.WeatherSnapshot{
		Current: current,
		Today:   today,
		Hourly:  hourly,
		Daily:   daily,
	}, nil
}

func buildCurrent(fc *ForecastResponse) (model.Current, error) {
	c := fc.Current
	temp, err := required("current.temperature_2m", 0, c.Temperature)
	if err != nil {
		return model.Current{}, err
	}
	feels, err := required("current.apparent_temperature", 0, c.FeelsLike)
	if err != nil {
		return model.Current{}, err
	}
	humidity, err := required("current.relative_humidity_2m", 0, c.Humidity)
	if err != nil {
		return model.Current{}, err
	}
	if c.WeatherCode == nil {
		return model.Current{}, &FieldError{Field: "current.weather_code"}
	}

	return model.Current{
		Temp:        round(temp),
		FeelsLike:   round(feels),
		Humidity:    round(humidity),
		WeatherCode: *c.WeatherCode,
		Condition:   Condition(*c.WeatherCode),
	}, nil
}

func buildToday(fc *ForecastResponse, loc *time.Location) (model.Today, error) {
	d := fc.Daily
	high, err := required("daily.temperature_2m_max", 0, at(d.TempMax, 0))
	if err != nil {
		return model.Today{}, err
	}
	low, err := required("daily.temperature_2m_min", 0, at(d.TempMin, 0))
	if err != nil {
		return model.Today{}, err
	}
	sunrise, err := parseLocal("daily.sunrise", 0, d.Sunrise, loc)
	if err != nil {
		return model.Today{}, err
	}
	sunset, err := parseLocal("daily.sunset", 0, d.Sunset, loc)
	if err != nil {
		return model.Today{}, err
	}

	return model.Today{
		High:    round(high),
		Low:     round(low),
		Sunrise: timefmt.ClockWithMinutes(sunrise),
		Sunset:  timefmt.ClockWithMinutes(sunset),
	}, nil
}

func buildHourly(fc *ForecastResponse, aq *AirQualityResponse, now time.Time, loc *time.Location) ([]model.Hour, error) {
	h := fc.Hourly
	n := now.In(loc)
	currentHour := time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), 0, 0, 0, loc)

	hours := make([]model.Hour, 0, windowHours)
	for i := range h.Time {
		if len(hours) >= windowHours {
			break
		}
		t, err := parseLocal("hourly.time", i, h.Time, loc)
		if err != nil {
			return nil, err
		}
		if t.Before(currentHour) {
			continue
		}

		temp, err := required("hourly.temperature_2m", i, at(h.Temperature, i))
		if err != nil {
			return nil, err
		}
		wind, err := required("hourly.wind_speed_10m", i, at(h.WindSpeed, i))
		if err != nil {
			return nil, err
		}
		dir, err := required("hourly.wind_direction_10m", i, at(h.WindDirection, i))
		if err != nil {
			return nil, err
		}
		code := at(h.WeatherCode, i)
		if code == nil {
			return nil, &FieldError{Field: "hourly.weather_code", Index: i}
		}

		var precip float64
		if p := at(h.PrecipChance, i); p != nil {
			precip = *p
		}

		hours = append(hours, model.Hour{
			Time:         t.Format(time.RFC3339),
			Hour:         timefmt.Hour(t),
			Temp:         round(temp),
			PrecipChance: round(precip),
			WindSpeed:    round(wind),
			WindDir:      Compass(dir),
			UV:           roundUV(at(aq.Hourly.UVIndex, i)),
			AQI:          roundAQI(at(aq.Hourly.USAQI, i)),
			Icon:         Icon(*code),
			Condition:    Condition(*code),
		})
	}
	return hours, nil
}

func buildDaily(fc *ForecastResponse, loc *time.Location) ([]model.Day, error) {
	d := fc.Daily
	last := min(outlookDays, len(d.Time)-1)

	days := make([]model.Day, 0, outlookDays)
	for i := 1; i <= last; i++ {
		date, err := time.ParseInLocation(timefmt.DateKeyLayout, d.Time[i], loc)
		if err != nil {
			return nil, &FieldError{Field: "daily.time", Index: i, Err: err}
		}
		high, err := required("daily.temperature_2m_max", i, at(d.TempMax, i))
		if err != nil {
			return nil, err
		}
		low, err := required("daily.temperature_2m_min", i, at(d.TempMin, i))
		if err != nil {
			return nil, err
		}
		var precip float64
		if p := at(d.PrecipChance, i); p != nil {
			precip = *p
		}

		days = append(days, model.Day{
			Date:         timefmt.Date(date),
			High:         round(high),
			Low:          round(low),
			PrecipChance: round(precip),
		})
	}
	return days, nil
}

// peaks returns the largest non-null UV and AQI of the window.
func peaks(hours []model.Hour) (*float64, *int) {
	var maxUV *float64
	var maxAQI *int
	for _, h := range hours {
		if h.UV != nil && (maxUV == nil || *h.UV > *maxUV) {
			v := *h.UV
			maxUV = &v
		}
		if h.AQI != nil && (maxAQI == nil || *h.AQI > *maxAQI) {
			v := *h.AQI
			maxAQI = &v
		}
	}
	return maxUV, maxAQI
}

// Compass maps a bearing in degrees to a 16-point compass direction.
func Compass(deg float64) string {
	n := int(math.RoundToEven(deg / 22.5))
	return compassPoints[((n%16)+16)%16]
}

// round rounds half to even.
func round(v float64) int {
	return int(math.RoundToEven(v))
}

func roundUV(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.RoundToEven(*v*10) / 10
	return &r
}

func roundAQI(v *float64) *int {
	if v == nil {
		return nil
	}
	r := round(*v)
	return &r
}

// at returns series[i], or nil when the series is too short.
func at[T any](series []*T, i int) *T {
	if i < 0 || i >= len(series) {
		return nil
	}
	return series[i]
}

func required(field string, i int, v *float64) (float64, error) {
	if v == nil {
		return 0, &FieldError{Field: field, Index: i}
	}
	return *v, nil
}

func parseLocal(field string, i int, series []string, loc *time.Location) (time.Time, error) {
	if i >= len(series) {
		return time.Time{}, &FieldError{Field: field, Index: i}
	}
	t, err := time.ParseInLocation(hourLayout, series[i], loc)
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Index: i, Err: err}
	}
	return t, nil
}
