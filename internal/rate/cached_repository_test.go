package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"extsync/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct{ mock.Mock }

func (m *MockCache) Get(key string) (any, bool) {
	args := m.Called(key)
	return args.Get(0), args.Bool(1)
}

func (m *MockCache) Set(key string, value any, ttl time.Duration) {
	m.Called(key, value, ttl)
}

func (m *MockCache) Del(key string) {
	m.Called(key)
}

func TestCachedRepo_PointLookup_MissPopulatesCache(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 0)

	want := stubRate("USD", 75.0)
	key := "RUB_USD_2023-10-27"

	cache.On("Get", key).Return(nil, false).Once()
	repo.On("FindByDate", mock.Anything, testDay, "RUB", "USD").Return(want, nil).Once()
	cache.On("Set", key, *want, time.Hour).Return().Once()

	got, err := cached.FindByDate(context.Background(), testDay, "RUB", "USD")

	require.NoError(t, err)
	require.Equal(t, want, got)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedRepo_PointLookup_HitSkipsRepository(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 0)

	want := stubRate("USD", 75.0)
	cache.On("Get", "RUB_USD_2023-10-27").Return(*want, true).Once()

	got, err := cached.FindByDate(context.Background(), testDay, "RUB", "USD")

	require.NoError(t, err)
	require.Equal(t, want, got)
	repo.AssertNotCalled(t, "FindByDate")
}

func TestCachedRepo_PointLookup_NotFoundNotCached(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 0)

	cache.On("Get", "RUB_USD_2023-10-27").Return(nil, false).Once()
	repo.On("FindByDate", mock.Anything, testDay, "RUB", "USD").Return(nil, nil).Once()

	got, err := cached.FindByDate(context.Background(), testDay, "RUB", "USD")

	require.NoError(t, err)
	require.Nil(t, got)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedRepo_Save_InvalidatesExactPointKey(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 0)

	rate := *stubRate("USD", 75.0)
	repo.On("Save", mock.Anything, rate).Return(nil).Once()
	cache.On("Del", "RUB_USD_2023-10-27").Return().Once()

	require.NoError(t, cached.Save(context.Background(), rate))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedRepo_Save_FailureSkipsInvalidation(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 0)

	rate := *stubRate("USD", 75.0)
	wantErr := errors.New("db temporarily unavailable")
	repo.On("Save", mock.Anything, rate).Return(wantErr).Once()

	require.ErrorIs(t, cached.Save(context.Background(), rate), wantErr)
	cache.AssertNotCalled(t, "Del", mock.Anything)
}

func TestCachedRepo_Range_UsesLongerTTLAndOwnKey(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 30*time.Hour)

	from := testDay.AddDate(0, 0, -2)
	want := []domain.ExchangeRate{*stubRate("USD", 74.0), *stubRate("USD", 75.0)}
	key := "RUB_USD_2023-10-25_2023-10-27"

	cache.On("Get", key).Return(nil, false).Once()
	repo.On("FindHistorical", mock.Anything, "RUB", "USD", from, testDay).Return(want, nil).Once()
	cache.On("Set", key, want, 30*time.Hour).Return().Once()

	got, err := cached.FindHistorical(context.Background(), "RUB", "USD", from, testDay)

	require.NoError(t, err)
	require.Equal(t, want, got)
	cache.AssertExpectations(t)
}

func TestCachedRepo_Range_EmptyResultNotCached(t *testing.T) {
	repo := new(MockRateRepository)
	cache := new(MockCache)
	cached := NewCachedRateRepository(repo, cache, time.Hour, 30*time.Hour)

	from := testDay.AddDate(0, 0, -2)
	cache.On("Get", "RUB_USD_2023-10-25_2023-10-27").Return(nil, false).Once()
	repo.On("FindHistorical", mock.Anything, "RUB", "USD", from, testDay).
		Return([]domain.ExchangeRate{}, nil).Once()

	got, err := cached.FindHistorical(context.Background(), "RUB", "USD", from, testDay)

	require.NoError(t, err)
	require.Empty(t, got)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}
