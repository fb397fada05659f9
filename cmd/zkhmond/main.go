package main

import (
	"flag"
	"log/slog"
	"net/http"
	"zkhmon-backend/lib/configutil"
	configlibsql "zkhmon-backend/lib/configutil/libsql"
	"zkhmon-backend/lib/readingstore"
	"zkhmon-backend/lib/serviceutil"
	"zkhmon-backend/services/zkhmon"

	"github.com/robfig/cron/v3"
)

type PortalConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Portal   PortalConfig        `json:"portal"`
	Database configlibsql.Struct `json:"database"`
	// Schedule is a cron expression, defaults to hourly
	Schedule string `json:"schedule"`
	Port     int    `json:"port"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialRefresh := flag.Bool("refresh", false, "Trigger a refresh immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1h"
	}
	if cfg.Port == 0 {
		cfg.Port = 8112
	}

	db, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer db.Close()

	store, err := readingstore.NewStore(ctx, db)
	if err != nil {
		serviceutil.Fatal("init reading store", err)
	}

	service := zkhmon.NewService(zkhmon.Options{
		BaseUrl:          cfg.Portal.BaseUrl,
		Username:         cfg.Portal.Username,
		Password:         cfg.Portal.Password,
		InstrumentOutput: restyOutput(*verbose),
	}, store)

	refresh := func() {
		err := service.Refresh(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "refresh failed, keeping last snapshot", "err", err)
		}
	}

	if *initialRefresh {
		go refresh()
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Schedule, refresh)
	if err != nil {
		serviceutil.Fatal("schedule refresh", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	mux := http.NewServeMux()
	service.RegisterHandlers(mux)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
