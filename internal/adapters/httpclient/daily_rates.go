package httpclient

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"extsync/internal/domain"
	"extsync/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// DailyRatesClient fetches the central-bank daily quotation feed. The feed
// quotes Value units of the base currency per Nominal units of each
// currency; rates are normalized to base-per-1-unit before they leave this
// package.
type DailyRatesClient struct {
	http      *http.Client
	baseURL   string
	base      string
	attempts  int
	baseDelay time.Duration
}

func NewDailyRatesClient(httpClient *http.Client, baseURL, baseCurrency string, attempts int, baseDelay time.Duration) *DailyRatesClient {
	if attempts <= 0 {
		attempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &DailyRatesClient{
		http:      httpClient,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		base:      baseCurrency,
		attempts:  attempts,
		baseDelay: baseDelay,
	}
}

func (c *DailyRatesClient) Name() string { return "cb-daily-rates" }

type dailyFeed struct {
	XMLName xml.Name      `xml:"ValCurs"`
	Date    string        `xml:"Date,attr"`
	Records []dailyRecord `xml:"Valute"`
}

type dailyRecord struct {
	NumCode  string `xml:"NumCode"`
	CharCode string `xml:"CharCode"`
	Nominal  int64  `xml:"Nominal"`
	Name     string `xml:"Name"`
	Value    string `xml:"Value"`
}

// GetRates fetches and parses all quotations for the given day. Transport
// errors, 5xx responses and response-parse failures are retried with
// exponential backoff (baseDelay doubling per attempt); 4xx responses and
// request-build errors are permanent. On exhaustion the last error is
// returned wrapped in *domain.ProviderError.
func (c *DailyRatesClient) GetRates(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
	var rates []domain.ExchangeRate
	attempt := 0

	op := func() error {
		attempt++
		res, err := c.fetch(ctx, date)
		if err != nil {
			metrics.ProviderRequests.WithLabelValues(c.Name(), "error").Inc()
			var provErr *domain.ProviderError
			if errors.As(err, &provErr) && !provErr.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		metrics.ProviderRequests.WithLabelValues(c.Name(), "success").Inc()
		rates = res
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		metrics.ProviderRetries.WithLabelValues(c.Name()).Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider": c.Name(),
			"attempt":  attempt,
			"wait":     wait.String(),
		}).Warn("daily rates request failed, retrying")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.attempts-1)), ctx), notify)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider": c.Name(),
			"date":     date.Format("2006-01-02"),
			"attempts": attempt,
		}).Error("daily rates request gave up")
		return nil, err
	}
	return rates, nil
}

func (c *DailyRatesClient) fetch(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderClient, Err: fmt.Errorf("failed to parse base URL: %w", err)}
	}
	q := u.Query()
	q.Set("date_req", date.Format("02/01/2006"))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderClient, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	logrus.WithFields(logrus.Fields{"provider": c.Name(), "url": u.String()}).Debug("requesting daily rates")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderNetwork, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderRateLimit, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	case resp.StatusCode >= 500:
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderServer, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	case resp.StatusCode >= 400:
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderClient, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderUnknown, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var feed dailyFeed
	if err = xml.Unmarshal(body, &feed); err != nil {
		return nil, &domain.ProviderError{Provider: c.Name(), Kind: domain.ProviderUnknown, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return c.normalize(feed, date), nil
}

// normalize converts per-nominal quotations into base-per-1-unit rates.
// Records with a non-positive nominal or value are logged and skipped.
func (c *DailyRatesClient) normalize(feed dailyFeed, date time.Time) []domain.ExchangeRate {
	day := domain.Day(date)
	rates := make([]domain.ExchangeRate, 0, len(feed.Records))
	for _, rec := range feed.Records {
		value, err := strconv.ParseFloat(strings.ReplaceAll(rec.Value, ",", "."), 64)
		if err != nil {
			logrus.WithFields(logrus.Fields{"provider": c.Name(), "code": rec.CharCode, "value": rec.Value}).
				Warn("skipping quotation with unparsable value")
			continue
		}
		if rec.Nominal <= 0 || value <= 0 {
			logrus.WithFields(logrus.Fields{"provider": c.Name(), "code": rec.CharCode, "nominal": rec.Nominal, "value": value}).
				Warn("skipping quotation with non-positive nominal or value")
			continue
		}
		rates = append(rates, domain.ExchangeRate{
			Base:   c.base,
			Target: strings.ToUpper(strings.TrimSpace(rec.CharCode)),
			Rate:   value / float64(rec.Nominal),
			Date:   day,
		})
	}
	return rates
}
