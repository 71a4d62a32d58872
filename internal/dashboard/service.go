package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service coordinates dashboard query execution with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

func (s *Service) window(period Period) (time.Time, time.Time) {
	from := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Sales returns the sales overview for the period, cached.
func (s *Service) Sales(ctx context.Context, period Period) (SalesOverview, error) {
	key, err := s.cache.BuildKey(ctx, keyOverview("sales", period.String())...)
	if err != nil {
		return SalesOverview{}, err
	}
	var overview SalesOverview
	err = s.cache.FetchJSON(ctx, key, &overview, func(ctx context.Context) (interface{}, error) {
		from, to := s.window(period)
		loaded, err := s.repo.SalesOverview(ctx, from, to)
		if err != nil {
			return nil, err
		}
		loaded.Period = period.String()
		return loaded, nil
	})
	return overview, err
}

// Marketing returns the marketing overview for the period, cached.
func (s *Service) Marketing(ctx context.Context, period Period) (MarketingOverview, error) {
	key, err := s.cache.BuildKey(ctx, keyOverview("marketing", period.String())...)
	if err != nil {
		return MarketingOverview{}, err
	}
	var overview MarketingOverview
	err = s.cache.FetchJSON(ctx, key, &overview, func(ctx context.Context) (interface{}, error) {
		from, to := s.window(period)
		loaded, err := s.repo.MarketingOverview(ctx, from, to)
		if err != nil {
			return nil, err
		}
		loaded.Period = period.String()
		return loaded, nil
	})
	return overview, err
}

// Ops returns the operations overview for the period, cached.
func (s *Service) Ops(ctx context.Context, period Period) (OpsOverview, error) {
	key, err := s.cache.BuildKey(ctx, keyOverview("ops", period.String())...)
	if err != nil {
		return OpsOverview{}, err
	}
	var overview OpsOverview
	err = s.cache.FetchJSON(ctx, key, &overview, func(ctx context.Context) (interface{}, error) {
		from, to := s.window(period)
		loaded, err := s.repo.OpsOverview(ctx, from, to)
		if err != nil {
			return nil, err
		}
		loaded.Period = period.String()
		return loaded, nil
	})
	return overview, err
}

// Finance returns the finance overview for the period, cached.
func (s *Service) Finance(ctx context.Context, period Period) (FinanceOverview, error) {
	key, err := s.cache.BuildKey(ctx, keyOverview("finance", period.String())...)
	if err != nil {
		return FinanceOverview{}, err
	}
	var overview FinanceOverview
	err = s.cache.FetchJSON(ctx, key, &overview, func(ctx context.Context) (interface{}, error) {
		from, to := s.window(period)
		loaded, err := s.repo.FinanceOverview(ctx, from, to)
		if err != nil {
			return nil, err
		}
		loaded.Period = period.String()
		return loaded, nil
	})
	return overview, err
}

// Director fans out to every area concurrently and combines the results.
// One failing area fails the whole overview.
func (s *Service) Director(ctx context.Context, period Period) (DirectorOverview, error) {
	overview := DirectorOverview{Period: period.String()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := s.Sales(ctx, period)
		if err != nil {
			return err
		}
		overview.Sales = sales
		return nil
	})
	g.Go(func() error {
		marketing, err := s.Marketing(ctx, period)
		if err != nil {
			return err
		}
		overview.Marketing = marketing
		return nil
	})
	g.Go(func() error {
		ops, err := s.Ops(ctx, period)
		if err != nil {
			return err
		}
		overview.Ops = ops
		return nil
	})
	g.Go(func() error {
		finance, err := s.Finance(ctx, period)
		if err != nil {
			return err
		}
		overview.Finance = finance
		return nil
	})
	if err := g.Wait(); err != nil {
		return DirectorOverview{}, err
	}
	return overview, nil
}

// Warm precomputes every area for the period. Used by the background warmup
// job so first page loads hit a hot cache.
func (s *Service) Warm(ctx context.Context, period Period) error {
	if _, err := s.Director(ctx, period); err != nil {
		return err
	}
	return nil
}

// Invalidate bumps the cache version so the next read recomputes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// ParsePeriod parses YYYY-MM, falling back to the current month.
func (s *Service) ParsePeriod(raw string) Period {
	if raw != "" {
		if t, err := time.Parse("2006-01", raw); err == nil {
			return Period{Year: t.Year(), Month: t.Month()}
		}
	}
	return CurrentPeriod(s.now())
}
