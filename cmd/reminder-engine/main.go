// cmd/reminder-engine/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"membership-reminders/internal/api"
	commonaws "membership-reminders/internal/common/aws"
	"membership-reminders/internal/common/config"
	"membership-reminders/internal/common/database"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/common/observability"
	"membership-reminders/internal/reminder/audit"
	"membership-reminders/internal/reminder/blacklist"
	"membership-reminders/internal/reminder/coordinator"
	"membership-reminders/internal/reminder/dispatch"
	"membership-reminders/internal/reminder/eligibility"
	"membership-reminders/internal/reminder/idempotency"
	"membership-reminders/internal/reminder/ratelimit"
	"membership-reminders/internal/reminder/template"
	"membership-reminders/internal/scheduler"
	"membership-reminders/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting reminder engine",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Postgres (required) ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "Postgres initialization")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	// --- Redis run lock (optional) ---
	var runLock coordinator.RunLock
	if cfg.Database.Redis.Enabled {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Fatal("redis unavailable", zap.Error(err))
		}
		hostname, _ := os.Hostname()
		runLock = coordinator.NewRedisRunLock(redisClient, hostname, cfg.Reminder.RunTimeout*2)
		zapLog.Info("distributed run lock enabled")
	}

	// --- Elasticsearch audit sink (optional) ---
	var indexer audit.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch init failed", zap.Error(err))
		}
		if err := esClient.Ping(); err != nil {
			zapLog.Warn("elasticsearch unreachable, audit documents may be dropped", zap.Error(err))
		}
		indexer = esClient
	}
	auditSink := audit.NewSink(indexer, log)

	// --- Transport providers, in configured fallback order ---
	providers := buildProviders(ctx, cfg, zapLog)
	if len(providers) == 0 {
		zapLog.Warn("no transport providers enabled; runs will fail until one is configured")
	}

	// --- Monitor alerts (optional SNS) ---
	var snsClient coordinator.SNSAPI
	if cfg.Alerts.Enabled && cfg.Alerts.SNSTopicARN != "" {
		client, err := commonaws.NewSNSClient(ctx, cfg.Alerts.Region)
		if err != nil {
			zapLog.Warn("SNS init failed, alerts will be log-only", zap.Error(err))
		} else {
			snsClient = client
		}
	}
	monitor := coordinator.NewMonitor(snsClient, cfg.Alerts, log)

	// --- Stores and pipeline components ---
	memberStore := store.NewMemberStore(pg.DB, log)
	notificationStore := store.NewNotificationStore(pg.DB, log)
	blacklistStore := store.NewBlacklistStore(pg.DB, log)
	rateStore := store.NewRateControlStore(pg.DB, log)
	settingsStore := store.NewSettingsStore(pg.DB, log)

	guard := idempotency.NewGuard(notificationStore)
	blacklistManager := blacklist.NewManager(blacklistStore, cfg.Reminder.BlacklistThreshold, log)
	resolver := eligibility.NewResolver(memberStore, guard, blacklistManager, cfg.Reminder.ExpiryWindowDays, log)
	limiter := ratelimit.NewLimiter(rateStore,
		cfg.Reminder.MaxEmailsPerDay, cfg.Reminder.MaxEmailsPerBatch, cfg.Reminder.PacingDelay, log)
	engine := template.NewEngine()
	dispatcher := dispatch.NewDispatcher(providers,
		cfg.Providers.VerifyTimeout, cfg.Providers.SendTimeout,
		cfg.Providers.RetrySweeps, cfg.Providers.RetryBaseDelay, log)

	service := coordinator.NewService(
		resolver, guard, limiter, engine, dispatcher,
		settingsStore, notificationStore, blacklistManager,
		auditSink, monitor, runLock, obs,
		coordinator.Config{RunTimeout: cfg.Reminder.RunTimeout},
		log,
	)

	// --- Daily scheduler ---
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(service, cfg.Scheduler.Hour, log)
		go sched.Run(ctx)
	}

	// --- HTTP surface ---
	server := api.NewServer(cfg.Server.Address, service, pg, log)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
}

func buildProviders(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) []dispatch.Provider {
	var providers []dispatch.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "ses":
			if !cfg.Providers.SES.Enabled {
				continue
			}
			sesClient, err := commonaws.NewSESClient(ctx, cfg.Providers.SES.Region)
			if err != nil {
				zapLog.Error("SES init failed, provider skipped", zap.Error(err))
				continue
			}
			providers = append(providers, dispatch.NewSESProvider(sesClient, cfg.Providers.SES.FromEmail))
		case "smtp":
			if !cfg.Providers.SMTP.Enabled {
				continue
			}
			providers = append(providers, dispatch.NewSMTPProvider(cfg.Providers.SMTP))
		}
	}
	return providers
}
