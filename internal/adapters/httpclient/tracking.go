package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"extsync/internal/domain"
	"extsync/internal/metrics"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// PostalTrackingClient wraps the authenticated postal tracking API. Every
// failure is classified into the provider error taxonomy; repeated
// server/rate-limit failures trip a circuit breaker so the provider gets a
// cool-down instead of a hammering.
type PostalTrackingClient struct {
	http    *http.Client
	baseURL string
	token   string
	breaker *gobreaker.CircuitBreaker
}

func NewPostalTrackingClient(httpClient *http.Client, baseURL, token string, cooldown time.Duration) *PostalTrackingClient {
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	c := &PostalTrackingClient{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "postal-tracking",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// Client-class errors are the caller's fault and must not
		// poison the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var provErr *domain.ProviderError
			return errors.As(err, &provErr) && provErr.Kind == domain.ProviderClient
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("tracking breaker state changed")
		},
	})
	return c
}

func (c *PostalTrackingClient) Identifier() string { return "postal-tracking" }

type historyResponse struct {
	History []struct {
		OperationDate   time.Time `json:"operation_date"`
		OperationTypeID int       `json:"operation_type_id"`
		OperationType   string    `json:"operation_type"`
		OperationAttrID int       `json:"operation_attr_id"`
		OperationAttr   string    `json:"operation_attr"`
		IndexFrom       string    `json:"index_from"`
		IndexTo         string    `json:"index_to"`
		AddressTo       string    `json:"address_to"`
		CountryFrom     string    `json:"country_from"`
		CountryTo       string    `json:"country_to"`
		Barcode         string    `json:"barcode"`
		MassGrams       int64     `json:"mass"`
		Payment         int64     `json:"payment"`
		DeclaredValue   int64     `json:"value"`
	} `json:"history"`
}

type postalOrderResponse struct {
	Events []struct {
		Number            string    `json:"number"`
		EventDateTime     time.Time `json:"event_date_time"`
		EventTypeID       int       `json:"event_type_id"`
		EventName         string    `json:"event_name"`
		IndexTo           string    `json:"index_to"`
		IndexEvent        string    `json:"index_event"`
		SumPaymentForward int64     `json:"sum_payment_forward"`
		CountryFromID     int       `json:"country_from_id"`
		CountryToID       int       `json:"country_to_id"`
	} `json:"events"`
}

func (c *PostalTrackingClient) GetTrackingHistory(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error) {
	var out historyResponse
	if err := c.get(ctx, "/v1/tracking/"+url.PathEscape(trackingNumber)+"/history", &out); err != nil {
		return nil, err
	}

	events := make([]domain.TrackingEvent, 0, len(out.History))
	for _, h := range out.History {
		events = append(events, domain.TrackingEvent{
			OperationDate:    h.OperationDate,
			OperationTypeID:  h.OperationTypeID,
			OperationType:    h.OperationType,
			OperationAttrID:  h.OperationAttrID,
			OperationAttr:    h.OperationAttr,
			IndexFrom:        h.IndexFrom,
			IndexTo:          h.IndexTo,
			AddressTo:        h.AddressTo,
			CountryFrom:      h.CountryFrom,
			CountryTo:        h.CountryTo,
			ItemBarcode:      h.Barcode,
			MassGrams:        h.MassGrams,
			PaymentMinor:     h.Payment,
			DeclaredValMinor: h.DeclaredValue,
		})
	}
	return events, nil
}

func (c *PostalTrackingClient) GetPostalOrderEvents(ctx context.Context, trackingNumber string) ([]domain.PostalOrderEvent, error) {
	var out postalOrderResponse
	if err := c.get(ctx, "/v1/tracking/"+url.PathEscape(trackingNumber)+"/postal-orders", &out); err != nil {
		return nil, err
	}

	events := make([]domain.PostalOrderEvent, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, domain.PostalOrderEvent{
			Number:            e.Number,
			EventDateTime:     e.EventDateTime,
			EventTypeID:       e.EventTypeID,
			EventName:         e.EventName,
			IndexTo:           e.IndexTo,
			IndexEvent:        e.IndexEvent,
			SumPaymentForward: e.SumPaymentForward,
			CountryFromID:     e.CountryFromID,
			CountryToID:       e.CountryToID,
		})
	}
	return events, nil
}

// get runs one authenticated GET through the breaker and decodes the JSON
// body into out. An open breaker surfaces as a RATE_LIMIT-kind error so
// callers back off the same way they would for a 429.
func (c *PostalTrackingClient) get(ctx context.Context, path string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doGet(ctx, path, out)
	})
	if err == nil {
		metrics.ProviderRequests.WithLabelValues(c.Identifier(), "success").Inc()
		return nil
	}
	metrics.ProviderRequests.WithLabelValues(c.Identifier(), "error").Inc()

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ProviderError{Provider: c.Identifier(), Kind: domain.ProviderRateLimit, Err: err}
	}
	return err
}

func (c *PostalTrackingClient) doGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &domain.ProviderError{Provider: c.Identifier(), Kind: domain.ProviderClient, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "AccessToken "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: c.Identifier(), Kind: domain.ProviderNetwork, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if kind, ok := classifyStatus(resp.StatusCode); ok {
		return &domain.ProviderError{Provider: c.Identifier(), Kind: kind, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{Provider: c.Identifier(), Kind: domain.ProviderUnknown, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func classifyStatus(code int) (domain.ProviderErrorKind, bool) {
	switch {
	case code >= 200 && code < 300:
		return "", false
	case code == http.StatusTooManyRequests:
		return domain.ProviderRateLimit, true
	case code >= 500:
		return domain.ProviderServer, true
	case code >= 400:
		return domain.ProviderClient, true
	default:
		return domain.ProviderUnknown, true
	}
}
