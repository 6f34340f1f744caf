package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rishi-singh26/tempbox/internal/config"
	"github.com/rishi-singh26/tempbox/internal/credential"
	"github.com/rishi-singh26/tempbox/internal/inbox"
	"github.com/rishi-singh26/tempbox/internal/mailtm"
	"github.com/rishi-singh26/tempbox/internal/session"
	"github.com/rishi-singh26/tempbox/internal/store"
)

var (
	version = "dev"

	configPath  = flag.String("config", config.DefaultConfigPath(), "Path to the configuration file")
	showVersion = flag.Bool("version", false, "Show version information")
	listDomains = flag.Bool("domains", false, "List available address domains and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("tempbox version %s\n", version)
		os.Exit(0)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// The store is the only unrecoverable startup dependency.
	db, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open local store")
	}
	defer db.Close()

	var vault credential.Vault
	if cfg.UseKeyring {
		kv, err := credential.NewKeyringVault()
		if err != nil {
			logger.WithError(err).Fatal("Failed to open system keyring")
		}
		vault = kv
	}

	client := mailtm.NewClient(cfg.BaseURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second, logger)
	cache := inbox.NewCache()
	controller := session.New(db, client, cache, vault, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *listDomains {
		domains, err := controller.AvailableDomains(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Failed to list domains")
		}
		for _, d := range domains {
			fmt.Println(d.Domain)
		}
		return
	}

	if err := controller.FetchAddresses(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to load addresses")
	}

	active, archived := controller.Addresses()
	fmt.Printf("%d active, %d archived addresses\n\n", len(active), len(archived))

	for _, addr := range active {
		entry, ok := cache.Get(addr.ID)
		switch {
		case !addr.Authenticated():
			fmt.Printf("  %-32s (no token, not synced)\n", addr.DisplayName())
		case !ok:
			fmt.Printf("  %-32s (no inbox state)\n", addr.DisplayName())
		case entry.Error != "":
			fmt.Printf("  %-32s sync failed: %s\n", addr.DisplayName(), entry.Error)
		default:
			fmt.Printf("  %-32s %d messages, %d unread, %.0f%% storage used\n",
				addr.DisplayName(), len(entry.Messages), entry.UnreadCount(), addr.UsagePercent())
		}
	}
}
