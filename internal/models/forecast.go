package models

import "time"

// WeatherCondition describes a day's weather in provider terms: a short
// human-readable text and a code in the provider's taxonomy. Immutable once
// constructed.
type WeatherCondition struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

// DayForecast is a single day of a weekly forecast. Date is an ISO calendar
// date (2006-01-02) with no time component. Temperatures are stored
// unrounded; rounding happens only at render time.
type DayForecast struct {
	Date      string           `json:"date"`
	MaxTempF  float64          `json:"maxTempF"`
	MinTempF  float64          `json:"minTempF"`
	Condition WeatherCondition `json:"condition"`
}

// Location is the resolved place for a postal code.
type Location struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Forecast is the normalized weekly forecast for one postal code. Days are
// ordered chronologically (day i = start date + i) and the ordering is
// preserved end to end: fetch, cache, render.
type Forecast struct {
	PostalCode string        `json:"postalCode"`
	Location   Location      `json:"location"`
	Days       []DayForecast `json:"days"`
}

// CacheEntry is the value stored under a forecast cache key: the rendered
// image together with the forecast it was rendered from, so alternate sizes
// can be re-rendered without another upstream fetch.
type CacheEntry struct {
	SVG         string    `json:"svg"`
	Forecast    Forecast  `json:"forecast"`
	GeneratedAt time.Time `json:"generatedAt"`
}
