package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mrz1836/postmark"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/mailhub/internal/activity"
	"github.com/edvin/mailhub/internal/config"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/db"
	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/logging"
	"github.com/edvin/mailhub/internal/metrics"
	"github.com/edvin/mailhub/internal/notify"
	"github.com/edvin/mailhub/internal/tokenstore"
	"github.com/edvin/mailhub/internal/workflow"
)

const taskQueue = "mailhub-tasks"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to core database")
	}
	defer corePool.Close()
	metrics.RegisterPgxPoolMetrics(corePool)

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	spec, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load providers file")
	}
	registry, err := spec.Registry(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider registry")
	}

	if cfg.SiteSecret == "" {
		logger.Warn().Msg("SITE_SECRET is empty, password escrow falls back to unencrypted encoding; set it outside dev")
	}
	var tokens tokenstore.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		tokens = tokenstore.NewRedis(redis.NewClient(opts), cfg.SiteSecret)
	} else {
		logger.Warn().Msg("REDIS_URL not set, using in-memory token store; reveal tokens only work against this process")
		tokens = tokenstore.NewMemory(cfg.SiteSecret)
	}

	bus := events.NewBus(logger)

	// Welcome mail fires on the provisioned event published by the
	// SetProvisioned activity, so the mailer lives in this process.
	var sender notify.EmailSender
	if cfg.PostmarkServerToken != "" {
		sender = postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	} else {
		logger.Warn().Msg("POSTMARK_SERVER_TOKEN not set, welcome emails are disabled")
	}
	customers := core.NewCustomerService(corePool, nil)
	mailer := notify.NewWelcomeMailer(sender, customers, registry, cfg.PostmarkSender, logger)
	bus.Subscribe(events.EventAccountProvisioned, mailer.Handle)

	w := worker.New(tc, taskQueue, worker.Options{
		Interceptors: []interceptor.WorkerInterceptor{workflow.NewErrorTypingInterceptor()},
	})

	// Register activities
	accountDBActivities := activity.NewAccountDB(corePool, bus)
	w.RegisterActivity(accountDBActivities)

	provisionActivities := activity.NewProvision(registry, tokens, logger, cfg.PasswordTokenTTL)
	w.RegisterActivity(provisionActivities)

	// Register workflows
	w.RegisterWorkflow(workflow.ProvisionEmailAccountWorkflow)
	w.RegisterWorkflow(workflow.DeleteRemoteMailboxWorkflow)
	w.RegisterWorkflow(workflow.ChangeMailboxPasswordWorkflow)
	w.RegisterWorkflow(workflow.CleanupAuditLogsWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	// Register cron schedules. Errors for already-existing schedules are
	// ignored so that re-deploys do not fail.
	registerCronSchedules(ctx, tc, taskQueue, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

type cronSchedule struct {
	id       string
	cron     string
	workflow interface{}
	args     []interface{}
}

func registerCronSchedules(ctx context.Context, tc temporalclient.Client, taskQueue string, cfg *config.Config, logger zerolog.Logger) {
	schedules := []cronSchedule{
		{
			id:       "audit-log-retention-cron",
			cron:     "0 4 * * *",
			workflow: workflow.CleanupAuditLogsWorkflow,
			args:     []interface{}{cfg.AuditLogRetentionDays},
		},
	}

	scheduleClient := tc.ScheduleClient()

	for _, s := range schedules {
		_, err := scheduleClient.Create(ctx, temporalclient.ScheduleOptions{
			ID: s.id,
			Spec: temporalclient.ScheduleSpec{
				CronExpressions: []string{s.cron},
			},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: taskQueue,
			},
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already registered") {
				logger.Info().Str("id", s.id).Msg("cron schedule already exists, skipping")
			} else {
				logger.Fatal().Err(err).Str("id", s.id).Msg("failed to create cron schedule")
			}
		} else {
			logger.Info().Str("id", s.id).Str("cron", s.cron).Msg("created cron schedule")
		}
	}
}
