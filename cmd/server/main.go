package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/api"
	"github.com/JianyueLab/JianyueBOT/internal/config"
	"github.com/JianyueLab/JianyueBOT/internal/monitor"
	"github.com/JianyueLab/JianyueBOT/internal/notify"
	"github.com/JianyueLab/JianyueBOT/internal/scheduler"
	"github.com/JianyueLab/JianyueBOT/internal/services"
	"github.com/JianyueLab/JianyueBOT/internal/store"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	// Services
	whoisService := services.NewWhoisService(&cfg.Whois, log)
	authService, err := services.NewAuthService(&cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	domainStore := store.New(cfg.Store.Path, whoisService, log)

	messenger := notify.NewBotMessenger(&cfg.Notify, log)
	dedup := monitor.NewDeduplicator()
	notifyService := notify.NewService(messenger, dedup, cfg.Notify.ChannelID, log)
	monitorService := monitor.NewService(domainStore, notifyService, &cfg.Monitor, log)

	// Periodic sweep plus the once-at-readiness check
	sched := scheduler.NewScheduler(monitorService, log)
	if err := sched.Start(cfg.Monitor.SweepSpec); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	go func() {
		if err := monitorService.StartupCheck(context.Background()); err != nil {
			log.Error().Err(err).Msg("startup check failed")
		}
	}()

	// Gateway
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	handler := api.NewHandler(
		domainStore,
		whoisService,
		monitorService,
		authService,
		services.NewPricingService(&cfg.Commands, log),
		services.NewIPInfoService(&cfg.Commands, log),
		services.NewZipcodeService(&cfg.Commands, log),
		services.NewMinecraftService(&cfg.Commands, log),
		services.NewBinCheckService(&cfg.Commands, log),
		log,
	)
	api.SetupRoutes(r, handler)

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("server starting")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
