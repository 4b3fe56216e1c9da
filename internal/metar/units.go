package metar

import "math"

// KnotsToMPH converts a speed in knots to miles per hour, rounded to the
// nearest whole number for display.
func KnotsToMPH(knots int) int {
	return int(math.Round(float64(knots) * 1.15078))
}

// CelsiusToFahrenheit converts a temperature in Celsius to Fahrenheit,
// rounded to the nearest whole number for display.
func CelsiusToFahrenheit(celsius int) int {
	return int(math.Round(float64(celsius)*9.0/5.0 + 32))
}

// HPaToInHg converts a pressure in hectopascals to inches of mercury,
// rounded to two decimal places.
func HPaToInHg(hpa int) float64 {
	return math.Round(float64(hpa)*0.02953*100) / 100
}

// DegreesToCompass maps a 0-360 bearing to one of the 16 compass points
// using 22.5 degree sectors centered on each point. 360 wraps to N.
func DegreesToCompass(degrees int) string {
	sector := int(math.Mod(float64(degrees)+11.25, 360) / 22.5)
	return compassPoints[sector]
}

// CompassName returns the prose form of a compass point ("NW" -> "northwest").
func CompassName(point string) string {
	if name, ok := compassNames[point]; ok {
		return name
	}
	return point
}
