package weather

// Monochrome 16x16 SVG icons sized for the e-ink layout.
const (
	iconSun       = `<svg width="16" height="16" viewBox="0 0 16 16"><circle cx="8" cy="8" r="4" fill="#000"/><g stroke="#000" stroke-width="1.5"><line x1="8" y1="1" x2="8" y2="3"/><line x1="8" y1="13" x2="8" y2="15"/><line x1="1" y1="8" x2="3" y2="8"/><line x1="13" y1="8" x2="15" y2="8"/><line x1="3" y1="3" x2="4.5" y2="4.5"/><line x1="11.5" y1="11.5" x2="13" y2="13"/><line x1="3" y1="13" x2="4.5" y2="11.5"/><line x1="11.5" y1="4.5" x2="13" y2="3"/></g></svg>`
	iconCloud     = `<svg width="16" height="16" viewBox="0 0 16 16"><path d="M4 12a3 3 0 0 1-.1-6A4 4 0 0 1 11.9 5a2.5 2.5 0 0 1 .1 5H4z" fill="#000"/></svg>`
	iconPartCloud = `<svg width="16" height="16" viewBox="0 0 16 16"><circle cx="6" cy="6" r="3" fill="#000"/><g stroke="#000" stroke-width="1"><line x1="6" y1="1" x2="6" y2="2"/><line x1="1" y1="6" x2="2" y2="6"/><line x1="2.5" y1="2.5" x2="3.2" y2="3.2"/><line x1="9.5" y1="2.5" x2="8.8" y2="3.2"/></g><path d="M5 13a2.5 2.5 0 0 1-.1-5A3.5 3.5 0 0 1 11.4 7 2 2 0 0 1 11.5 11H5z" fill="#000"/></svg>`
	iconRain      = `<svg width="16" height="16" viewBox="0 0 16 16"><path d="M4 8a2.5 2.5 0 0 1-.1-5A3.5 3.5 0 0 1 10.4 2 2 2 0 0 1 10.5 6H4z" fill="#000"/><g stroke="#000" stroke-width="1.5" stroke-linecap="round"><line x1="4" y1="10" x2="3" y2="14"/><line x1="8" y1="10" x2="7" y2="14"/><line x1="12" y1="10" x2="11" y2="14"/></g></svg>`
	iconSnow      = `<svg width="16" height="16" viewBox="0 0 16 16"><path d="M4 7a2.5 2.5 0 0 1-.1-5A3.5 3.5 0 0 1 10.4 1 2 2 0 0 1 10.5 5H4z" fill="#000"/><g fill="#000"><circle cx="4" cy="10" r="1"/><circle cx="8" cy="11" r="1"/><circle cx="12" cy="10" r="1"/><circle cx="6" cy="14" r="1"/><circle cx="10" cy="14" r="1"/></g></svg>`
	iconStorm     = `<svg width="16" height="16" viewBox="0 0 16 16"><path d="M4 7a2.5 2.5 0 0 1-.1-5A3.5 3.5 0 0 1 10.4 1 2 2 0 0 1 10.5 5H4z" fill="#000"/><polygon points="9,8 6,12 8,12 7,16 11,11 9,11 10,8" fill="#000"/></svg>`
	iconFog       = `<svg width="16" height="16" viewBox="0 0 16 16"><g stroke="#000" stroke-width="2" stroke-linecap="round"><line x1="2" y1="6" x2="14" y2="6"/><line x1="2" y1="10" x2="14" y2="10"/><line x1="4" y1="14" x2="12" y2="14"/></g></svg>`
)

const (
	defaultIcon      = iconCloud
	defaultCondition = "Unknown"
)

// WMO weather interpretation codes.
var icons = map[int]string{
	0:  iconSun,
	1:  iconSun,
	2:  iconPartCloud,
	3:  iconCloud,
	45: iconFog,
	48: iconFog,
	51: iconRain,
	53: iconRain,
	55: iconRain,
	56: iconRain,
	57: iconRain,
	61: iconRain,
	63: iconRain,
	65: iconRain,
	66: iconRain,
	67: iconRain,
	71: iconSnow,
	73: iconSnow,
	75: iconSnow,
	77: iconSnow,
	80: iconRain,
	81: iconRain,
	82: iconRain,
	85: iconSnow,
	86: iconSnow,
	95: iconStorm,
	96: iconStorm,
	99: iconStorm,
}

var conditions = map[int]string{
	0:  "Clear",
	1:  "Mostly Clear",
	2:  "Partly Cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Icy Fog",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Heavy Drizzle",
	56: "Freezing Drizzle",
	57: "Heavy Freezing Drizzle",
	61: "Light Rain",
	63: "Rain",
	65: "Heavy Rain",
	66: "Freezing Rain",
	67: "Heavy Freezing Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	77: "Snow Grains",
	80: "Light Showers",
	81: "Showers",
	82: "Heavy Showers",
	85: "Light Snow Showers",
	86: "Heavy Snow Showers",
	95: "Thunderstorm",
	96: "Thunderstorm with Hail",
	99: "Heavy Thunderstorm with Hail",
}

// Icon returns the SVG for a weather code, or the cloud icon if unmapped.
func Icon(code int) string {
	if s, ok := icons[code]; ok {
		return s
	}
	return defaultIcon
}

// Condition returns the label for a weather code, or "Unknown".
func Condition(code int) string {
	if s, ok := conditions[code]; ok {
		return s
	}
	return defaultCondition
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}
