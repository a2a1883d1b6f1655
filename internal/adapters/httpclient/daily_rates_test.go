package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"extsync/internal/domain"

	"github.com/stretchr/testify/require"
)

var feedDay = time.Date(2023, 10, 27, 0, 0, 0, 0, time.UTC)

const feedXML = `<?xml version="1.0" encoding="windows-1251"?>
<ValCurs Date="27.10.2023" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode><CharCode>USD</CharCode><Nominal>1</Nominal><Name>US Dollar</Name><Value>75,0000</Value>
  </Valute>
  <Valute ID="R01239">
    <NumCode>978</NumCode><CharCode>EUR</CharCode><Nominal>1</Nominal><Name>Euro</Name><Value>85,0000</Value>
  </Valute>
  <Valute ID="R01820">
    <NumCode>392</NumCode><CharCode>JPY</CharCode><Nominal>100</Nominal><Name>Yen</Name><Value>50,1234</Value>
  </Valute>
  <Valute ID="R00000">
    <NumCode>000</NumCode><CharCode>XXX</CharCode><Nominal>0</Nominal><Name>Broken</Name><Value>10,0</Value>
  </Valute>
</ValCurs>`

func newTestClient(srv *httptest.Server, attempts int) *DailyRatesClient {
	return NewDailyRatesClient(srv.Client(), srv.URL, "RUB", attempts, time.Millisecond)
}

func TestDailyRatesClient_Success_NormalizesQuotations(t *testing.T) {
	var gotDateReq string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDateReq = r.URL.Query().Get("date_req")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(srv, 3)
	rates, err := c.GetRates(context.Background(), feedDay)

	require.NoError(t, err)
	require.Equal(t, "27/10/2023", gotDateReq)
	// the zero-nominal record is skipped, not fatal
	require.Len(t, rates, 3)

	byCode := map[string]domain.ExchangeRate{}
	for _, r := range rates {
		byCode[r.Target] = r
	}
	require.InDelta(t, 75.0, byCode["USD"].Rate, 1e-9)
	require.InDelta(t, 85.0, byCode["EUR"].Rate, 1e-9)
	// per-100-units quotation normalized to per-1-unit
	require.InDelta(t, 0.501234, byCode["JPY"].Rate, 1e-9)
	require.Equal(t, "RUB", byCode["USD"].Base)
	require.Equal(t, feedDay, byCode["USD"].Date)
}

func TestDailyRatesClient_RetriesServerErrorThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "nope", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(srv, 3)
	rates, err := c.GetRates(context.Background(), feedDay)

	require.NoError(t, err)
	require.Len(t, rates, 3)
	require.Equal(t, 2, calls)
}

func TestDailyRatesClient_ClientError_NoRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(srv, 3)
	_, err := c.GetRates(context.Background(), feedDay)

	require.Error(t, err)
	require.Equal(t, 1, calls)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, domain.ProviderClient, provErr.Kind)
}

func TestDailyRatesClient_ExhaustsAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(srv, 3)
	_, err := c.GetRates(context.Background(), feedDay)

	require.Error(t, err)
	require.Equal(t, 3, calls)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, domain.ProviderServer, provErr.Kind)
}

func TestDailyRatesClient_ParseFailureIsRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte("<ValCurs><Valute>")) // truncated
			return
		}
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(srv, 3)
	rates, err := c.GetRates(context.Background(), feedDay)

	require.NoError(t, err)
	require.Len(t, rates, 3)
	require.Equal(t, 2, calls)
}

func TestDailyRatesClient_SkipsUnparsableValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<ValCurs Date="27.10.2023">
			<Valute><CharCode>USD</CharCode><Nominal>1</Nominal><Value>oops</Value></Valute>
			<Valute><CharCode>EUR</CharCode><Nominal>1</Nominal><Value>85,0</Value></Valute>
		</ValCurs>`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(srv, 1)
	rates, err := c.GetRates(context.Background(), feedDay)

	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, "EUR", rates[0].Target)
}
