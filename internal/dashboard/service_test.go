package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/pijar-hq/pijar/testing"
)

type stubRepo struct {
	salesCalls   atomic.Int64
	financeCalls atomic.Int64
	opsErr       error
}

func (s *stubRepo) SalesOverview(ctx context.Context, from, to time.Time) (SalesOverview, error) {
	s.salesCalls.Add(1)
	return SalesOverview{Revenue: 1500, DealsWon: 3, DealsLost: 1, NewLeads: 12}, nil
}

func (s *stubRepo) MarketingOverview(ctx context.Context, from, to time.Time) (MarketingOverview, error) {
	return MarketingOverview{CampaignSpend: 400, ContentPieces: 5}, nil
}

func (s *stubRepo) OpsOverview(ctx context.Context, from, to time.Time) (OpsOverview, error) {
	if s.opsErr != nil {
		return OpsOverview{}, s.opsErr
	}
	return OpsOverview{OpenTickets: 7, ClosedTickets: 20}, nil
}

func (s *stubRepo) FinanceOverview(ctx context.Context, from, to time.Time) (FinanceOverview, error) {
	s.financeCalls.Add(1)
	return FinanceOverview{Revenue: 2000, Expenses: 800, NetIncome: 1200}, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, NewCache(client, time.Minute)), client
}

func testPeriod() Period {
	return Period{Year: 2026, Month: time.March}
}

func TestSalesOverviewCached(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(t, repo)

	first, err := svc.Sales(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, float64(1500), first.Revenue)
	assert.Equal(t, "2026-03", first.Period)

	second, err := svc.Sales(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), repo.salesCalls.Load())
}

func TestInvalidateBumpsVersion(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(t, repo)

	_, err := svc.Sales(context.Background(), testPeriod())
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.Sales(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.salesCalls.Load())
}

func TestDirectorCombinesAllAreas(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(t, repo)

	overview, err := svc.Director(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, "2026-03", overview.Period)
	assert.Equal(t, int64(3), overview.Sales.DealsWon)
	assert.Equal(t, float64(400), overview.Marketing.CampaignSpend)
	assert.Equal(t, int64(7), overview.Ops.OpenTickets)
	assert.Equal(t, float64(1200), overview.Finance.NetIncome)
}

func TestDirectorFailsWhenOneAreaFails(t *testing.T) {
	repo := &stubRepo{opsErr: errors.New("tickets table unavailable")}
	svc, _ := newTestService(t, repo)

	_, err := svc.Director(context.Background(), testPeriod())
	require.Error(t, err)
}

func TestServiceWithoutRedisStillLoads(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	overview, err := svc.Finance(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, float64(2000), overview.Revenue)

	_, err = svc.Finance(context.Background(), testPeriod())
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.financeCalls.Load())
}

func TestParsePeriod(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2026-03", svc.ParsePeriod("2026-03").String())
	assert.Equal(t, "2026-08", svc.ParsePeriod("").String())
	assert.Equal(t, "2026-08", svc.ParsePeriod("bogus").String())
}
