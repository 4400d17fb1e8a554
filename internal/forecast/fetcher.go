package forecast

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newsforge/forecast-image-service/internal/client"
	"github.com/newsforge/forecast-image-service/internal/models"
)

const dateLayout = "2006-01-02"

// Fetcher builds a normalized weekly Forecast from the upstream provider:
// one geocoding call followed by a concurrent day-summary fetch per day.
type Fetcher struct {
	provider client.Provider
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher using the given provider and logger.
func NewFetcher(provider client.Provider, logger *zap.Logger) *Fetcher {
	return &Fetcher{provider: provider, logger: logger}
}

// Fetch resolves the postal code, then requests horizonDays daily summaries
// concurrently starting at startDate. All-or-nothing: the first failure fails
// the whole fetch and remaining results are discarded. Days in the returned
// forecast are ordered by request index (day i = startDate + i) regardless of
// response arrival order.
func (f *Fetcher) Fetch(ctx context.Context, postalCode string, startDate time.Time, horizonDays int) (models.Forecast, error) {
	place, err := f.provider.Geocode(ctx, postalCode)
	if err != nil {
		return models.Forecast{}, err
	}
	if f.logger != nil {
		f.logger.Debug("postal code resolved",
			zap.String("zip", postalCode),
			zap.String("name", place.Name),
			zap.Float64("lat", place.Lat),
			zap.Float64("lon", place.Lon))
	}

	days := make([]models.DayForecast, horizonDays)
	errCh := make(chan error, horizonDays)
	var wg sync.WaitGroup
	for i := 0; i < horizonDays; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			date := startDate.AddDate(0, 0, i).Format(dateLayout)
			sum, err := f.provider.FetchDaySummary(ctx, place.Lat, place.Lon, date)
			if err != nil {
				errCh <- err
				return
			}
			days[i] = models.DayForecast{
				Date:      date,
				MaxTempF:  sum.TempMax,
				MinTempF:  sum.TempMin,
				Condition: client.SynthesizeCondition(sum.CloudCover, sum.Precipitation),
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return models.Forecast{}, err
	}

	return models.Forecast{
		PostalCode: postalCode,
		Location:   models.Location{Name: place.Name, Region: place.State},
		Days:       days,
	}, nil
}
