package client

import "github.com/newsforge/forecast-image-service/internal/models"

// SynthesizeCondition derives a weather condition from a day summary's cloud
// cover and precipitation totals. The day-summary endpoint returns no
// condition code, so one is synthesized on a priority basis: precipitation
// first, then cloud cover. Operates on continuous percentages/totals; the
// discrete provider-code mapping lives in the icons package and the two are
// kept separate on purpose.
func SynthesizeCondition(cloudCover, precipitation float64) models.WeatherCondition {
	switch {
	case precipitation > 30:
		return models.WeatherCondition{Text: "Rain", Code: 500}
	case precipitation > 0:
		return models.WeatherCondition{Text: "Light rain", Code: 300}
	case cloudCover > 80:
		return models.WeatherCondition{Text: "Overcast", Code: 804}
	case cloudCover > 50:
		return models.WeatherCondition{Text: "Partly cloudy", Code: 802}
	case cloudCover > 20:
		return models.WeatherCondition{Text: "Few clouds", Code: 801}
	default:
		return models.WeatherCondition{Text: "Clear sky", Code: 800}
	}
}
