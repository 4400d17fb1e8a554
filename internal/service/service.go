package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newsforge/forecast-image-service/internal/cache"
	"github.com/newsforge/forecast-image-service/internal/models"
	"github.com/newsforge/forecast-image-service/internal/observability"
	"github.com/newsforge/forecast-image-service/internal/render"
)

const dateLayout = "2006-01-02"

// ErrMissingPostalCode is returned when a request carries no postal code.
// Caller error: surfaced immediately, never retried, no cache interaction.
var ErrMissingPostalCode = errors.New("postal code is required")

// ForecastFetcher is implemented by the forecast package. Declared here so
// the orchestrator can be tested against a mock.
type ForecastFetcher interface {
	Fetch(ctx context.Context, postalCode string, startDate time.Time, horizonDays int) (models.Forecast, error)
}

// Options is the explicit configuration for the orchestrator. Passed in at
// construction so tests can substitute arbitrary postal-code sets and
// dimensions.
type Options struct {
	PostalCodes   []string
	DefaultWidth  int
	DefaultHeight int
	CacheTTL      time.Duration
	IssueWeekday  time.Weekday
	Horizon       int
}

// ForecastService orchestrates forecast retrieval using the cache-aside
// pattern: consult the store first, fetch and populate on a miss, re-render
// on a dimension mismatch without refetching.
type ForecastService struct {
	fetcher ForecastFetcher
	store   cache.Store
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// GetRequest carries the parameters of an on-demand forecast image request.
// Zero values mean defaults: IssueDate defaults to today, Width/Height to
// the configured default dimensions, VersionTag to none.
type GetRequest struct {
	PostalCode string
	IssueDate  time.Time
	Width      int
	Height     int
	VersionTag string
}

// NewForecastService creates a ForecastService with the provided
// dependencies and options.
func NewForecastService(fetcher ForecastFetcher, store cache.Store, opts Options, logger *zap.Logger) *ForecastService {
	if opts.Horizon <= 0 {
		opts.Horizon = 7
	}
	return &ForecastService{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Get serves one forecast image. Cache hit at the default dimensions returns
// the stored image verbatim; a hit at other dimensions re-renders the stored
// forecast without touching the entry or the upstream. A miss fetches,
// renders at the requested dimensions and stores the result. Store read
// failures are treated as misses; store write failures are logged and the
// response is still served.
func (s *ForecastService) Get(ctx context.Context, req GetRequest) (string, error) {
	if strings.TrimSpace(req.PostalCode) == "" {
		return "", ErrMissingPostalCode
	}
	if err := cache.ValidatePostalCode(req.PostalCode); err != nil {
		return "", err
	}

	issue := req.IssueDate
	if issue.IsZero() {
		issue = s.now()
	}
	width, height := req.Width, req.Height
	if width <= 0 {
		width = s.opts.DefaultWidth
	}
	if height <= 0 {
		height = s.opts.DefaultHeight
	}

	key := cache.Key(req.PostalCode, issue.Format(dateLayout), req.VersionTag)

	entry, ok, err := s.store.Get(ctx, key)
	if err != nil {
		// Fail open: a broken or unreachable store must not take the
		// service down, it just costs an upstream fetch.
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		s.logger.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		ok = false
	}

	if ok {
		observability.CacheHitsTotal.Inc()
		if width == s.opts.DefaultWidth && height == s.opts.DefaultHeight {
			return entry.SVG, nil
		}
		// Alternate size: re-render the stored forecast. The cached entry
		// keeps its original image; nothing is written back.
		s.logger.Debug("re-rendering cached forecast at alternate size",
			zap.String("key", key), zap.Int("width", width), zap.Int("height", height))
		return s.renderSVG(entry.Forecast, width, height), nil
	}

	observability.CacheMissesTotal.Inc()
	s.logger.Debug("cache miss, fetching upstream", zap.String("key", key))

	fc, err := s.fetcher.Fetch(ctx, req.PostalCode, issue, s.opts.Horizon)
	if err != nil {
		return "", err
	}

	svg := s.renderSVG(fc, width, height)
	// Note: when this miss was served at non-default dimensions, that render
	// becomes the canonical cached image until the TTL expires. Inherited
	// behavior; TestService_Get_MissAtAlternateSizeCachesIt pins it down.
	newEntry := models.CacheEntry{SVG: svg, Forecast: fc, GeneratedAt: s.now()}
	if setErr := s.store.Set(ctx, key, newEntry, s.opts.CacheTTL); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	return svg, nil
}

// RefreshAll regenerates the cached forecast image for every configured
// postal code for the upcoming issue date. Failures are logged and skipped;
// one postal code never aborts the batch.
func (s *ForecastService) RefreshAll(ctx context.Context) {
	observability.ScheduledRefreshTotal.Inc()
	issue := s.NextIssueDate(s.now())
	s.logger.Info("scheduled refresh starting",
		zap.String("issue_date", issue.Format(dateLayout)),
		zap.Int("postal_codes", len(s.opts.PostalCodes)))

	for _, zip := range s.opts.PostalCodes {
		if err := s.refreshOne(ctx, zip, issue); err != nil {
			observability.ScheduledRefreshErrorsTotal.Inc()
			s.logger.Error("scheduled refresh failed for postal code",
				zap.String("zip", zip), zap.Error(err))
			continue
		}
		s.logger.Info("forecast refreshed", zap.String("zip", zip))
	}
}

func (s *ForecastService) refreshOne(ctx context.Context, postalCode string, issue time.Time) error {
	fc, err := s.fetcher.Fetch(ctx, postalCode, issue, s.opts.Horizon)
	if err != nil {
		return err
	}
	svg := s.renderSVG(fc, s.opts.DefaultWidth, s.opts.DefaultHeight)
	entry := models.CacheEntry{SVG: svg, Forecast: fc, GeneratedAt: s.now()}
	key := cache.Key(postalCode, issue.Format(dateLayout), "")
	if err := s.store.Set(ctx, key, entry, s.opts.CacheTTL); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// NextIssueDate returns the next occurrence of the configured issue weekday
// strictly after today. When today already is that weekday the result is a
// full week out, never today.
func (s *ForecastService) NextIssueDate(today time.Time) time.Time {
	offset := (int(s.opts.IssueWeekday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDate(0, 0, offset)
}

func (s *ForecastService) renderSVG(fc models.Forecast, width, height int) string {
	start := time.Now()
	svg := render.SVG(fc, width, height)
	observability.SVGRendersTotal.Inc()
	observability.SVGRenderDuration.Observe(time.Since(start).Seconds())
	return svg
}
