package normalize

import "math"

// CodeInfo is the display-ready pairing for a WMO weather code.
type CodeInfo struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// WeatherCode maps an Open-Meteo WMO weather code to a description/icon pair.
// The range checks are ordered: a later range only applies when the earlier
// checks did not match, so the ordering below must not be rearranged.
func WeatherCode(code int) CodeInfo {
	switch {
	case code == 0:
		return CodeInfo{"Clear sky", "01d"}
	case code == 1:
		return CodeInfo{"Mainly clear", "02d"}
	case code == 2:
		return CodeInfo{"Partly cloudy", "03d"}
	case code == 3:
		return CodeInfo{"Overcast", "04d"}
	case code <= 48:
		return CodeInfo{"Fog", "50d"}
	case code <= 55:
		return CodeInfo{"Drizzle", "09d"}
	case code <= 65:
		return CodeInfo{"Rain", "10d"}
	case code <= 75:
		return CodeInfo{"Snow", "13d"}
	case code <= 82:
		return CodeInfo{"Rain showers", "09d"}
	case code == 95:
		return CodeInfo{"Thunderstorm", "11d"}
	case code <= 99:
		return CodeInfo{"Thunderstorm with hail", "11d"}
	default:
		return CodeInfo{"Unknown", "01d"}
	}
}

// Round1 rounds to one decimal place. All numeric rounding happens at
// normalization time so cached values are already display-ready.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
