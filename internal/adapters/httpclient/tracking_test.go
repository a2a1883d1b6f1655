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

const historyJSON = `{
	"history": [
		{
			"operation_date": "2023-10-25T10:00:00Z",
			"operation_type_id": 1,
			"operation_type": "Acceptance",
			"operation_attr_id": 1,
			"operation_attr": "Single",
			"index_from": "101000",
			"index_to": "190000",
			"address_to": "Saint Petersburg",
			"country_from": "RU",
			"country_to": "RU",
			"barcode": "RA644000001RU",
			"mass": 1200,
			"payment": 0,
			"value": 50000
		},
		{
			"operation_date": "2023-10-27T08:30:00Z",
			"operation_type_id": 2,
			"operation_type": "Delivery",
			"barcode": "RA644000001RU"
		}
	]
}`

const postalOrdersJSON = `{
	"events": [
		{
			"number": "12345678",
			"event_date_time": "2023-10-27T09:00:00Z",
			"event_type_id": 3,
			"event_name": "Payment",
			"index_to": "190000",
			"index_event": "190000",
			"sum_payment_forward": 150000,
			"country_from_id": 643,
			"country_to_id": 643
		}
	]
}`

func TestPostalTrackingClient_GetTrackingHistory(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(historyJSON))
	}))
	t.Cleanup(srv.Close)

	c := NewPostalTrackingClient(srv.Client(), srv.URL, "secret-token", time.Minute)
	events, err := c.GetTrackingHistory(context.Background(), "RA644000001RU")

	require.NoError(t, err)
	require.Equal(t, "AccessToken secret-token", gotAuth)
	require.Equal(t, "/v1/tracking/RA644000001RU/history", gotPath)
	require.Len(t, events, 2)
	require.Equal(t, 1, events[0].OperationTypeID)
	require.Equal(t, "RA644000001RU", events[0].ItemBarcode)
	require.Equal(t, int64(1200), events[0].MassGrams)
	require.Equal(t, int64(50000), events[0].DeclaredValMinor)
}

func TestPostalTrackingClient_GetPostalOrderEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tracking/RA644000001RU/postal-orders", r.URL.Path)
		_, _ = w.Write([]byte(postalOrdersJSON))
	}))
	t.Cleanup(srv.Close)

	c := NewPostalTrackingClient(srv.Client(), srv.URL, "secret-token", time.Minute)
	events, err := c.GetPostalOrderEvents(context.Background(), "RA644000001RU")

	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "12345678", events[0].Number)
	require.Equal(t, int64(150000), events[0].SumPaymentForward)
}

func TestPostalTrackingClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   domain.ProviderErrorKind
	}{
		{"unauthorized is client", http.StatusUnauthorized, domain.ProviderClient},
		{"not found is client", http.StatusNotFound, domain.ProviderClient},
		{"too many requests is rate limit", http.StatusTooManyRequests, domain.ProviderRateLimit},
		{"internal error is server", http.StatusInternalServerError, domain.ProviderServer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			t.Cleanup(srv.Close)

			c := NewPostalTrackingClient(srv.Client(), srv.URL, "t", time.Minute)
			_, err := c.GetTrackingHistory(context.Background(), "RA644000001RU")

			var provErr *domain.ProviderError
			require.ErrorAs(t, err, &provErr)
			require.Equal(t, tc.kind, provErr.Kind)
		})
	}
}

func TestPostalTrackingClient_NetworkErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewPostalTrackingClient(&http.Client{Timeout: time.Second}, srv.URL, "t", time.Minute)
	_, err := c.GetTrackingHistory(context.Background(), "RA644000001RU")

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, domain.ProviderNetwork, provErr.Kind)
}

func TestPostalTrackingClient_BreakerOpensAfterServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewPostalTrackingClient(srv.Client(), srv.URL, "t", time.Minute)

	for i := 0; i < 3; i++ {
		_, err := c.GetTrackingHistory(context.Background(), "RA644000001RU")
		require.Error(t, err)
	}
	require.Equal(t, 3, calls)

	// Breaker is now open: the call fails fast without reaching the server.
	_, err := c.GetTrackingHistory(context.Background(), "RA644000001RU")
	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, domain.ProviderRateLimit, provErr.Kind)
	require.Equal(t, 3, calls)
}

func TestPostalTrackingClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewPostalTrackingClient(srv.Client(), srv.URL, "t", time.Minute)

	for i := 0; i < 5; i++ {
		_, err := c.GetTrackingHistory(context.Background(), "RA644000001RU")
		var provErr *domain.ProviderError
		require.ErrorAs(t, err, &provErr)
		require.Equal(t, domain.ProviderClient, provErr.Kind)
	}
	// Every call reached the server; nothing failed fast.
	require.Equal(t, 5, calls)
}
