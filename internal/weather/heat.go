package weather

import "math"

// HeatIndexF computes the apparent temperature from dry-bulb temperature (F)
// and relative humidity (percent) using the NWS Rothfusz regression. Below
// 80F the regression is not valid and the raw temperature is returned.
func HeatIndexF(tempF, rh float64) float64 {
	if tempF < 80 {
		return tempF
	}

	hi := -42.379 +
		2.04901523*tempF +
		10.14333127*rh -
		0.22475541*tempF*rh -
		0.00683783*tempF*tempF -
		0.05481717*rh*rh +
		0.00122874*tempF*tempF*rh +
		0.00085282*tempF*rh*rh -
		0.00000199*tempF*tempF*rh*rh

	// Low-humidity adjustment: RH < 13% and 80F <= T <= 112F.
	if rh < 13 && tempF >= 80 && tempF <= 112 {
		adj := ((13 - rh) / 4) * math.Sqrt((17-math.Abs(tempF-95))/17)
		hi -= adj
	}

	// High-humidity adjustment: RH > 85% and 80F <= T <= 87F.
	if rh > 85 && tempF >= 80 && tempF <= 87 {
		adj := ((rh - 85) / 10) * ((87 - tempF) / 5)
		hi += adj
	}

	return hi
}
