package domain

import "time"

var monthlyTemperatures = [12]float64{6.0, 6.1, 8.3, 11.0, 14.1, 17.4, 19.4, 19.1, 16.5, 12.8, 9.1, 6.7}

var monthlyHumidity = [12]float64{81, 78, 75, 72, 71, 70, 68, 68, 72, 76, 80, 82}

// SeasonalTemperature returns the mean outdoor temperature (°C) for the UTC month of t.
func SeasonalTemperature(t time.Time) float64 {
	return monthlyTemperatures[t.UTC().Month()-1]
}

// SeasonalHumidity returns the mean relative humidity (%) for the UTC month of t.
func SeasonalHumidity(t time.Time) float64 {
	return monthlyHumidity[t.UTC().Month()-1]
}
