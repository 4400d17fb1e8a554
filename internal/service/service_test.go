package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/newsforge/forecast-image-service/internal/cache"
	"github.com/newsforge/forecast-image-service/internal/models"
	"github.com/newsforge/forecast-image-service/internal/render"
)

type mockFetcher struct {
	calls    int
	forecast models.Forecast
	err      error
}

func (m *mockFetcher) Fetch(ctx context.Context, postalCode string, startDate time.Time, horizonDays int) (models.Forecast, error) {
	m.calls++
	if m.err != nil {
		return models.Forecast{}, m.err
	}
	fc := m.forecast
	fc.PostalCode = postalCode
	return fc, nil
}

type mockStore struct {
	data    map[string]models.CacheEntry
	getErr  error
	setErr  error
	getKeys []string
	setKeys []string
}

func (m *mockStore) Get(ctx context.Context, key string) (models.CacheEntry, bool, error) {
	m.getKeys = append(m.getKeys, key)
	if m.getErr != nil {
		return models.CacheEntry{}, false, m.getErr
	}
	entry, ok := m.data[key]
	return entry, ok, nil
}

func (m *mockStore) Set(ctx context.Context, key string, entry models.CacheEntry, ttl time.Duration) error {
	m.setKeys = append(m.setKeys, key)
	if m.setErr != nil {
		return m.setErr
	}
	if m.data == nil {
		m.data = make(map[string]models.CacheEntry)
	}
	m.data[key] = entry
	return nil
}

func testForecast() models.Forecast {
	days := make([]models.DayForecast, 7)
	for i := range days {
		days[i] = models.DayForecast{
			Date:      fmt.Sprintf("2024-01-%02d", 7+i),
			MaxTempF:  70,
			MinTempF:  50,
			Condition: models.WeatherCondition{Text: "Clear sky", Code: 800},
		}
	}
	return models.Forecast{
		Location: models.Location{Name: "San Marcos", Region: "Texas"},
		Days:     days,
	}
}

func testOptions() Options {
	return Options{
		PostalCodes:   []string{"78666"},
		DefaultWidth:  800,
		DefaultHeight: 200,
		CacheTTL:      time.Hour,
		IssueWeekday:  time.Monday,
		Horizon:       7,
	}
}

func newTestService(fetcher *mockFetcher, store *mockStore) *ForecastService {
	return NewForecastService(fetcher, store, testOptions(), zap.NewNop())
}

// TestService_Get_MissingPostalCode verifies the caller-error path: no cache
// interaction, no upstream fetch.
func TestService_Get_MissingPostalCode(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)

	_, err := svc.Get(context.Background(), GetRequest{PostalCode: "  "})
	if !errors.Is(err, ErrMissingPostalCode) {
		t.Fatalf("error = %v, want ErrMissingPostalCode", err)
	}
	if len(store.getKeys) != 0 || fetcher.calls != 0 {
		t.Error("missing postal code touched cache or upstream")
	}
}

// TestService_Get_InvalidPostalCode verifies charset validation before any
// key is built.
func TestService_Get_InvalidPostalCode(t *testing.T) {
	svc := newTestService(&mockFetcher{}, &mockStore{})
	_, err := svc.Get(context.Background(), GetRequest{PostalCode: "SW1A 1AA"})
	if !errors.Is(err, cache.ErrInvalidPostalCode) {
		t.Fatalf("error = %v, want ErrInvalidPostalCode", err)
	}
}

// TestService_Get_MissThenHit verifies the cache-aside contract: the first
// request fetches and stores, the second serves the stored image verbatim
// with no further upstream call.
func TestService_Get_MissThenHit(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)
	issue := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	first, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls after miss = %d, want 1", fetcher.calls)
	}
	if len(store.setKeys) != 1 || store.setKeys[0] != "forecast-78666-2024-01-07-" {
		t.Fatalf("set keys = %v", store.setKeys)
	}

	second, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls after hit = %d, want 1", fetcher.calls)
	}
	if second != first {
		t.Error("hit at default dimensions did not return the stored image verbatim")
	}
}

// TestService_Get_HitAtAlternateSize verifies dimension independence of
// cache identity: a hit at other dimensions re-renders the stored forecast
// without an upstream fetch and without overwriting the entry.
func TestService_Get_HitAtAlternateSize(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)
	issue := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	stored, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	resized, err := svc.Get(context.Background(), GetRequest{
		PostalCode: "78666", IssueDate: issue, Width: 400, Height: 100,
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (alternate size must not refetch)", fetcher.calls)
	}
	if !strings.Contains(resized, `viewBox="0 0 400 100"`) {
		t.Error("alternate-size response not rendered at requested dimensions")
	}
	if len(store.getKeys) != 2 || store.getKeys[0] != store.getKeys[1] {
		t.Errorf("cache keys differ across dimensions: %v", store.getKeys)
	}
	if len(store.setKeys) != 1 {
		t.Errorf("alternate-size hit wrote to the cache: %v", store.setKeys)
	}
	if entry := store.data[store.setKeys[0]]; entry.SVG != stored {
		t.Error("alternate-size render overwrote the stored image")
	}
}

// TestService_Get_RoundTripAtStoredDimensions verifies that re-rendering the
// cached forecast at the original dimensions reproduces the stored image
// byte for byte.
func TestService_Get_RoundTripAtStoredDimensions(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)
	issue := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	entry := store.data["forecast-78666-2024-01-07-"]
	if got := render.SVG(entry.Forecast, 800, 200); got != entry.SVG {
		t.Error("re-render of cached forecast at stored dimensions is not byte-identical")
	}
}

// TestService_Get_MissAtAlternateSizeCachesIt pins down inherited behavior:
// a miss served at non-default dimensions stores that render as the
// canonical entry, so a later default-size request gets the alternate-size
// image until the TTL expires.
func TestService_Get_MissAtAlternateSizeCachesIt(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)
	issue := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	small, err := svc.Get(context.Background(), GetRequest{
		PostalCode: "78666", IssueDate: issue, Width: 400, Height: 100,
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	atDefault, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
	if atDefault != small {
		t.Error("default-size request after alternate-size miss should serve the cached alternate-size image")
	}
}

// TestService_Get_VersionTagBustsCache verifies that a version tag changes
// cache identity without changing anything else.
func TestService_Get_VersionTagBustsCache(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)
	issue := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666", IssueDate: issue, VersionTag: "v2"}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want 2 (version tag must bypass the existing entry)", fetcher.calls)
	}
	if _, ok := store.data["forecast-78666-2024-01-07-v2"]; !ok {
		t.Error("tagged entry not stored under tagged key")
	}
}

// TestService_Get_StoreReadFailureFailsOpen verifies a cache read error is
// treated as a miss, not a fatal error.
func TestService_Get_StoreReadFailureFailsOpen(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{getErr: errors.New("connection refused")}
	svc := newTestService(fetcher, store)

	svg, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666"})
	if err != nil {
		t.Fatalf("Get() error = %v, want fresh fetch despite store failure", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
	if svg == "" {
		t.Error("empty image returned")
	}
}

// TestService_Get_StoreWriteFailureStillServes verifies a cache write error
// is logged, not surfaced.
func TestService_Get_StoreWriteFailureStillServes(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{setErr: errors.New("connection refused")}
	svc := newTestService(fetcher, store)

	svg, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666"})
	if err != nil {
		t.Fatalf("Get() error = %v, want success despite store write failure", err)
	}
	if svg == "" {
		t.Error("empty image returned")
	}
}

// TestService_Get_UpstreamFailureSurfaces verifies that a fetch failure on
// the miss path propagates to the caller.
func TestService_Get_UpstreamFailureSurfaces(t *testing.T) {
	upstreamErr := errors.New("geocoding failed")
	svc := newTestService(&mockFetcher{err: upstreamErr}, &mockStore{})

	_, err := svc.Get(context.Background(), GetRequest{PostalCode: "78666"})
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("error = %v, want upstream failure", err)
	}
}

// TestService_NextIssueDate verifies the weekly cadence: always 1-7 days in
// the future, a full week out when today is the cadence day.
func TestService_NextIssueDate(t *testing.T) {
	svc := newTestService(&mockFetcher{}, &mockStore{})
	tests := []struct {
		name  string
		today time.Time
		want  string
	}{
		{name: "on the cadence day", today: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), want: "2024-01-15"}, // a Monday
		{name: "day before", today: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), want: "2024-01-08"},         // a Sunday
		{name: "day after", today: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), want: "2024-01-15"},          // a Tuesday
		{name: "mid week", today: time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), want: "2024-01-15"},          // a Thursday
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.NextIssueDate(tc.today).Format("2006-01-02")
			if got != tc.want {
				t.Errorf("NextIssueDate(%s) = %s, want %s", tc.today.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

// TestService_RefreshAll verifies the scheduled batch: entries stored at
// default dimensions under the untagged key for the upcoming issue date.
func TestService_RefreshAll(t *testing.T) {
	fetcher := &mockFetcher{forecast: testForecast()}
	store := &mockStore{}
	svc := newTestService(fetcher, store)
	svc.now = func() time.Time { return time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC) } // a Sunday

	svc.RefreshAll(context.Background())

	entry, ok := store.data["forecast-78666-2024-01-08-"]
	if !ok {
		t.Fatalf("no entry stored for next issue date; keys = %v", store.setKeys)
	}
	if !strings.Contains(entry.SVG, `viewBox="0 0 800 200"`) {
		t.Error("scheduled refresh did not render at default dimensions")
	}
}

// TestService_RefreshAll_FailureIsolation verifies one postal code's failure
// never aborts the batch.
func TestService_RefreshAll_FailureIsolation(t *testing.T) {
	fetcher := &failOnceFetcher{forecast: testForecast()}
	store := &mockStore{}
	opts := testOptions()
	opts.PostalCodes = []string{"00000", "78666"}
	svc := NewForecastService(fetcher, store, opts, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC) }

	svc.RefreshAll(context.Background())

	if _, ok := store.data["forecast-78666-2024-01-08-"]; !ok {
		t.Error("failure for the first postal code aborted the rest of the batch")
	}
	if _, ok := store.data["forecast-00000-2024-01-08-"]; ok {
		t.Error("failed postal code should not have been stored")
	}
}

// failOnceFetcher fails for postal code "00000" and succeeds otherwise.
type failOnceFetcher struct {
	forecast models.Forecast
}

func (f *failOnceFetcher) Fetch(ctx context.Context, postalCode string, startDate time.Time, horizonDays int) (models.Forecast, error) {
	if postalCode == "00000" {
		return models.Forecast{}, errors.New("upstream unavailable")
	}
	fc := f.forecast
	fc.PostalCode = postalCode
	return fc, nil
}
