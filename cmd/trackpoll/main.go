// trackpoll is the one-shot trigger for the shipment tracking sync.
// Exit codes: 0 success (including an empty batch), 1 runtime failure,
// 2 when no valid status filter resolves.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"extsync/internal/adapters/cache"
	"extsync/internal/adapters/httpclient"
	"extsync/internal/adapters/postgres"
	"extsync/internal/config"
	"extsync/internal/domain"
	"extsync/internal/platform/db"
	"extsync/internal/tracking"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type statusFlags []string

func (s *statusFlags) String() string { return strings.Join(*s, ",") }

func (s *statusFlags) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var statusArgs statusFlags
	var (
		limit = flag.Int("limit", 100, "maximum number of packages to poll")
		force = flag.Bool("force", false, "bypass the tracking bundle cache")
	)
	flag.Var(&statusArgs, "status", "package status to poll, repeatable (default SENT,RECEIVED)")
	flag.Parse()

	statuses := domain.DefaultPollStatuses
	if len(statusArgs) > 0 {
		statuses = statuses[:0:0]
		for _, raw := range statusArgs {
			status, parseErr := domain.ParsePackageStatus(raw)
			if parseErr != nil {
				fmt.Fprintf(os.Stderr, "ignoring %v\n", parseErr)
				continue
			}
			statuses = append(statuses, status)
		}
		if len(statuses) == 0 {
			fmt.Fprintln(os.Stderr, "tracking poll failed: no valid status filters")
			return 2
		}
	}

	appCfg, err := config.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracking poll failed: %v\n", err)
		return 1
	}
	logrus.SetOutput(os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := db.CreatePoolAndPing(ctx, appCfg.DbServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracking poll failed: db connect: %v\n", err)
		return 1
	}
	defer pool.Close()

	ttlCache, err := cache.New(appCfg.Cache.MaxItems)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracking poll failed: %v\n", err)
		return 1
	}
	defer ttlCache.Close()

	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	client := httpclient.NewPostalTrackingClient(
		&http.Client{Timeout: httpTimeout},
		appCfg.TrackingAPI.BaseURL,
		appCfg.TrackingAPI.Token,
		time.Duration(appCfg.TrackingAPI.CooldownSeconds)*time.Second,
	)

	packageRepo := postgres.NewPackageRepository(pool)
	eventRepo := postgres.NewTrackingEventRepository(pool)
	limiter := tracking.NewTokenBucketLimiter(appCfg.TrackingAPI.RPS, appCfg.TrackingAPI.Burst)
	service := tracking.NewService(
		client, packageRepo, eventRepo, ttlCache, limiter,
		time.Duration(appCfg.TrackingAPI.CacheTTLSeconds)*time.Second,
	)
	poller := tracking.NewPoller(packageRepo, service)

	updated, err := poller.Poll(ctx, uuid.NewString(), statuses, *limit, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracking poll failed: %v\n", err)
		return 1
	}

	fmt.Printf("tracking poll done, %d packages updated\n", updated)
	return 0
}
