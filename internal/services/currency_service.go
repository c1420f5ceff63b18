package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/cache"
	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/fx"
	"github.com/Legalistas/brixar-sub002/internal/models"
)

// ICurrencyService manages exchange rates and keeps them fresh.
type ICurrencyService interface {
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrency(ctx context.Context, code string) (*models.Currency, error)
	CreateCurrency(ctx context.Context, p Principal, in CurrencyInput) (*models.Currency, error)
	UpdateCurrency(ctx context.Context, p Principal, code string, patch CurrencyPatch) (*models.Currency, error)
	UpdateDollarRate(ctx context.Context) (*models.Currency, error)
	RefreshAllRates(ctx context.Context) (*RefreshSummary, error)
	GetRate(ctx context.Context, code string) (*RateView, error)
}

// IRateCache is the subset of cache.RateCache the service needs.
type IRateCache interface {
	Get(ctx context.Context, code string) (cache.CachedRate, bool, error)
	Set(ctx context.Context, code string, rate cache.CachedRate, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// ILocker is the subset of cache.Locker the service needs.
type ILocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type CurrencyInput struct {
	Code     string
	Name     string
	Rate     decimal.Decimal
	Symbol   string
	FlagCode string
	ApiURL   *string
}

type CurrencyPatch struct {
	Name     *string
	Rate     *decimal.Decimal
	Symbol   *string
	FlagCode *string
	ApiURL   *string
}

// RateView is what GetRate serves to readers.
type RateView struct {
	Code      string          `json:"code"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Cached    bool            `json:"cached"`
}

// RateResult reports the outcome of refreshing one currency.
type RateResult struct {
	Code    string           `json:"code"`
	Rate    *decimal.Decimal `json:"rate,omitempty"`
	Skipped bool             `json:"skipped"`
	Error   string           `json:"error,omitempty"`
}

type RefreshSummary struct {
	Results   []RateResult `json:"results"`
	Refreshed int          `json:"refreshed"`
	Skipped   int          `json:"skipped"`
}

const (
	refreshLockTTL     = 30 * time.Second
	refreshConcurrency = 4
	// A stale rate whose refresh failed is cached this long so an upstream
	// outage costs one call per window instead of one per read.
	refreshBackoffTTL = 30 * time.Second
)

type currencyService struct {
	db      *gorm.DB
	quotes  fx.IQuoteClient
	cache   IRateCache
	locker  ILocker
	ttl     time.Duration
	flights singleflight.Group
}

func NewCurrencyService(db *gorm.DB, cfg *config.Config, quotes fx.IQuoteClient, rateCache IRateCache, locker ILocker) ICurrencyService {
	if rateCache == nil {
		rateCache = cache.NewRateCache(nil)
	}
	if locker == nil {
		locker = cache.NewLocker(nil)
	}
	ttl := cfg.FxCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &currencyService{db: db, quotes: quotes, cache: rateCache, locker: locker, ttl: ttl}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *currencyService) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	currencies := []models.Currency{}
	if err := s.db.WithContext(ctx).Order("code ASC").Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("error listing currencies: %w", err)
	}
	return currencies, nil
}

func (s *currencyService) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	code = normalizeCode(code)
	var currency models.Currency
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&currency).Error; err != nil {
		return nil, lookupError("currency", code, err)
	}
	return &currency, nil
}

func (s *currencyService) CreateCurrency(ctx context.Context, p Principal, in CurrencyInput) (*models.Currency, error) {
	if !p.IsAdmin() {
		return nil, forbiddenErrorf("administrator role required")
	}
	code := normalizeCode(in.Code)
	if len(code) < 3 || len(code) > 8 {
		return nil, validationErrorf("code must be 3 to 8 characters")
	}
	if !in.Rate.IsPositive() {
		return nil, validationErrorf("rate must be greater than zero")
	}
	currency := &models.Currency{
		Code:     code,
		Name:     strings.TrimSpace(in.Name),
		Rate:     in.Rate,
		Symbol:   strings.TrimSpace(in.Symbol),
		FlagCode: strings.TrimSpace(in.FlagCode),
		ApiURL:   cleanURL(in.ApiURL),
	}
	if err := s.db.WithContext(ctx).Create(currency).Error; err != nil {
		return nil, writeError("creating currency", err)
	}
	return currency, nil
}

func cleanURL(u *string) *string {
	if u == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*u)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *currencyService) UpdateCurrency(ctx context.Context, p Principal, code string, patch CurrencyPatch) (*models.Currency, error) {
	if !p.IsAdmin() {
		return nil, forbiddenErrorf("administrator role required")
	}
	if patch.Rate != nil && !patch.Rate.IsPositive() {
		return nil, validationErrorf("rate must be greater than zero")
	}
	currency, err := s.GetCurrency(ctx, code)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if patch.Name != nil {
		changes["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Rate != nil {
		changes["rate"] = *patch.Rate
	}
	if patch.Symbol != nil {
		changes["symbol"] = strings.TrimSpace(*patch.Symbol)
	}
	if patch.FlagCode != nil {
		changes["flag_code"] = strings.TrimSpace(*patch.FlagCode)
	}
	if patch.ApiURL != nil {
		changes["api_url"] = cleanURL(patch.ApiURL)
	}
	if len(changes) == 0 {
		return nil, validationErrorf("nothing to update")
	}
	if err := s.db.WithContext(ctx).Model(currency).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("error updating currency %s: %w", currency.Code, err)
	}
	if err := s.cache.Delete(ctx, currency.Code); err != nil {
		config.LogError(config.GetLogger(), "currency", "UpdateCurrency", "evict cached rate", currency.Code, err)
	}
	return s.GetCurrency(ctx, currency.Code)
}

// UpdateDollarRate stores the current blue-dollar sell price as the ARS rate.
// On failure the stored rate is left as it was.
func (s *currencyService) UpdateDollarRate(ctx context.Context) (*models.Currency, error) {
	return s.refresh(ctx, models.BaseCurrencyCode)
}

// refresh fetches and stores one currency. Concurrent callers in this process
// share one upstream call; across instances a Redis lock elects one refresher
// and the others return the stored row.
func (s *currencyService) refresh(ctx context.Context, code string) (*models.Currency, error) {
	v, err, _ := s.flights.Do(code, func() (any, error) {
		release, err := s.locker.Obtain(ctx, "fx:refresh:"+code, refreshLockTTL)
		if errors.Is(err, cache.ErrNotObtained) {
			return s.GetCurrency(ctx, code)
		}
		if err != nil {
			return nil, err
		}
		defer release()
		return s.fetchAndStore(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Currency), nil
}

func (s *currencyService) fetchAndStore(ctx context.Context, code string) (*models.Currency, error) {
	var currency models.Currency
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&currency).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound) && code == models.BaseCurrencyCode:
		currency = models.Currency{Code: code, Name: "Peso argentino", Symbol: "$", FlagCode: "ar"}
	case err != nil:
		return nil, lookupError("currency", code, err)
	}

	var quote *fx.Quote
	if code == models.BaseCurrencyCode {
		quote, err = s.quotes.BlueDollar(ctx)
	} else {
		if currency.ApiURL == nil {
			return nil, validationErrorf("currency %s has no apiUrl", code)
		}
		quote, err = s.quotes.Fetch(ctx, *currency.ApiURL)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing %s: %v", ErrUpstream, code, err)
	}

	now := time.Now().UTC()
	if currency.ID == 0 {
		currency.Rate = quote.Venta
		if err := s.db.WithContext(ctx).Create(&currency).Error; err != nil {
			return nil, writeError("creating currency "+code, err)
		}
	} else {
		err := s.db.WithContext(ctx).Model(&currency).Updates(map[string]any{
			"rate":       quote.Venta,
			"updated_at": now,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("error storing rate of %s: %w", code, err)
		}
		currency.Rate = quote.Venta
		currency.UpdatedAt = now
	}

	if err := s.cache.Set(ctx, code, cachedRate(&currency), s.ttl); err != nil {
		config.LogError(config.GetLogger(), "currency", "fetchAndStore", "cache rate", code, err)
	}
	return &currency, nil
}

// RefreshAllRates refreshes ARS from the blue-dollar quote and every other
// currency that has an apiUrl. A failing currency is logged and skipped.
func (s *currencyService) RefreshAllRates(ctx context.Context) (*RefreshSummary, error) {
	logger := config.GetLogger()

	var codes []string
	err := s.db.WithContext(ctx).Model(&models.Currency{}).
		Where("code <> ? AND api_url IS NOT NULL AND api_url <> ''", models.BaseCurrencyCode).
		Order("code ASC").
		Pluck("code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("error listing currencies to refresh: %w", err)
	}

	var (
		mu      sync.Mutex
		results []RateResult
	)
	record := func(code string, currency *models.Currency, err error) {
		result := RateResult{Code: code}
		if err != nil {
			config.LogError(logger, "currency", "RefreshAllRates", "refresh rate", code, err)
			result.Skipped = true
			result.Error = err.Error()
		} else {
			rate := currency.Rate
			result.Rate = &rate
		}
		mu.Lock()
		results = append(results, result)
		mu.Unlock()
	}

	currency, err := s.UpdateDollarRate(ctx)
	record(models.BaseCurrencyCode, currency, err)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, code := range codes {
		code := code
		g.Go(func() error {
			currency, err := s.refresh(gctx, code)
			record(code, currency, err)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Code < results[j].Code })
	summary := &RefreshSummary{Results: results}
	for _, r := range results {
		if r.Skipped {
			summary.Skipped++
		} else {
			summary.Refreshed++
		}
	}
	logger.WithFields(map[string]any{
		"refreshed": summary.Refreshed,
		"skipped":   summary.Skipped,
	}).Info("currency rates refreshed")
	return summary, nil
}

// GetRate serves the rate from the cache, then from the database. A row older
// than the cache TTL that can be refreshed is refreshed first; if that fails
// the stored rate is served and cached for refreshBackoffTTL.
func (s *currencyService) GetRate(ctx context.Context, code string) (*RateView, error) {
	code = normalizeCode(code)
	if cached, hit, err := s.cache.Get(ctx, code); err != nil {
		config.LogError(config.GetLogger(), "currency", "GetRate", "read cached rate", code, err)
	} else if hit {
		return &RateView{Code: code, Rate: cached.Rate, UpdatedAt: cached.UpdatedAt, Cached: true}, nil
	}

	currency, err := s.GetCurrency(ctx, code)
	if err != nil && !(errors.Is(err, ErrNotFound) && code == models.BaseCurrencyCode) {
		return nil, err
	}

	refreshable := code == models.BaseCurrencyCode || (currency != nil && currency.ApiURL != nil)
	stale := currency == nil || time.Since(currency.UpdatedAt) > s.ttl
	if refreshable && stale {
		fresh, refreshErr := s.refresh(ctx, code)
		if refreshErr != nil {
			config.LogError(config.GetLogger(), "currency", "GetRate", "refresh stale rate", code, refreshErr)
			if currency == nil {
				return nil, refreshErr
			}
		} else {
			currency = fresh
		}
		// Another instance holds the refresh lock or upstream failed.
		if refreshErr != nil || time.Since(currency.UpdatedAt) > s.ttl {
			if err := s.cache.Set(ctx, code, cachedRate(currency), s.backoffTTL()); err != nil {
				config.LogError(config.GetLogger(), "currency", "GetRate", "cache stale rate", code, err)
			}
		}
	} else if err := s.cache.Set(ctx, code, cachedRate(currency), s.ttl); err != nil {
		config.LogError(config.GetLogger(), "currency", "GetRate", "cache rate", code, err)
	}

	return &RateView{Code: currency.Code, Rate: currency.Rate, UpdatedAt: currency.UpdatedAt}, nil
}

func cachedRate(c *models.Currency) cache.CachedRate {
	return cache.CachedRate{Rate: c.Rate, UpdatedAt: c.UpdatedAt}
}

func (s *currencyService) backoffTTL() time.Duration {
	return min(refreshBackoffTTL, s.ttl)
}
