// rateupdate is the one-shot trigger for the daily rate sync. Intended to
// be run from cron; exit code 0 means the rates for the requested date are
// in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"extsync/internal/adapters/httpclient"
	"extsync/internal/adapters/postgres"
	"extsync/internal/config"
	"extsync/internal/platform/db"
	"extsync/internal/rate"

	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dateArg = flag.String("date", "", "date to fetch rates for, YYYY-MM-DD (default: yesterday)")
		force   = flag.Bool("force", false, "fetch even when rates for the date already exist")
	)
	flag.Parse()

	appCfg, err := config.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rate update failed: %v\n", err)
		return 1
	}
	logrus.SetOutput(os.Stdout)

	date := time.Now().AddDate(0, 0, -1)
	if *dateArg != "" {
		date, err = time.Parse("2006-01-02", *dateArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rate update failed: invalid -date %q, want YYYY-MM-DD\n", *dateArg)
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.CreatePoolAndPing(ctx, appCfg.DbServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rate update failed: db connect: %v\n", err)
		return 1
	}
	defer pool.Close()

	repo := postgres.NewRateRepository(pool)

	if !*force {
		exists, checkErr := repo.HasRatesFor(ctx, appCfg.RatesAPI.BaseCurrency, date)
		if checkErr != nil {
			fmt.Fprintf(os.Stderr, "rate update failed: %v\n", checkErr)
			return 1
		}
		if exists {
			fmt.Printf("rates for %s already present, skipping (use -force to refetch)\n", date.Format("2006-01-02"))
			return 0
		}
	}

	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	client := httpclient.NewDailyRatesClient(
		&http.Client{Timeout: httpTimeout},
		appCfg.RatesAPI.BaseURL,
		appCfg.RatesAPI.BaseCurrency,
		appCfg.RatesAPI.RetryAttempts,
		time.Duration(appCfg.RatesAPI.RetryBaseDelayMS)*time.Millisecond,
	)
	service := rate.NewService(client, repo, appCfg.RatesAPI.BaseCurrency)

	saved, err := service.UpdateRates(ctx, date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rate update for %s failed after saving %d rates: %v\n",
			date.Format("2006-01-02"), saved, err)
		return 1
	}

	fmt.Printf("rate update for %s done, %d rates saved\n", date.Format("2006-01-02"), saved)
	return 0
}
