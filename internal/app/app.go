// Package app assembles the attendance summary job from configuration. It is
// shared by the Lambda handler, the ops server and the job-runner CLI so the
// three hosts wire stores, delivery and metrics identically.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hrpulse/internal/config"
	"hrpulse/internal/core"
	"hrpulse/internal/db"
	"hrpulse/internal/docstore"
	notify "hrpulse/internal/notifications/core"
	"hrpulse/internal/scheduler"
)

// App is a fully wired job plus the resources it holds open.
type App struct {
	Job      *scheduler.AttendanceSummaryJob
	Probes   []core.HealthProbe
	Location *time.Location

	// Postgres is set when STORE_BACKEND=postgres.
	Postgres *pgxpool.Pool
	// Mongo is set when STORE_BACKEND=mongo.
	Mongo *mongo.Client

	closers []func(context.Context) error
}

// Build connects the configured store backend and constructs the job.
// On error every resource opened so far is released.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, err
	}

	a := &App{Location: loc}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	var deps scheduler.JobDeps
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		deps, err = a.connectPostgres(ctx, cfg.Database)
	case config.BackendMongo:
		deps, err = a.connectMongo(ctx, cfg.Mongo)
	default:
		err = fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	deps.Metrics = notify.NoopJobMetrics{}
	if cfg.AWS.NotificationQueue != "" || cfg.Metrics.Enabled {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		if cfg.AWS.NotificationQueue != "" {
			client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			deps.Publisher = notify.NewDeliveryPublisher(client, cfg.AWS.NotificationQueue, logger)
		}
		if cfg.Metrics.Enabled {
			client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			deps.Metrics = notify.NewCloudWatchJobMetrics(client, cfg.Metrics.Namespace, cfg.Report.NotificationKind, logger)
		}
	}

	a.Job = scheduler.NewAttendanceSummaryJob(JobConfigFrom(cfg.Report, loc), deps, logger)

	logger.InfoContext(ctx, "attendance summary job wired",
		"store_backend", cfg.StoreBackend,
		"timezone", loc.String(),
		"delivery_enabled", deps.Publisher != nil,
		"metrics_enabled", cfg.Metrics.Enabled,
	)
	return a, nil
}

// JobConfigFrom maps report settings onto the job's configuration.
func JobConfigFrom(rc config.ReportConfig, loc *time.Location) scheduler.JobConfig {
	return scheduler.JobConfig{
		Kind:             rc.NotificationKind,
		TargetRoles:      rc.TargetRoles,
		DayOffset:        rc.DayOffset,
		Location:         loc,
		StoreCallTimeout: rc.StoreCallTimeout,
		Concurrency:      rc.Concurrency,
	}
}

func (a *App) connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (scheduler.JobDeps, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return scheduler.JobDeps{}, err
	}
	a.Postgres = pool
	a.closers = append(a.closers, func(context.Context) error {
		pool.Close()
		return nil
	})
	a.Probes = append(a.Probes, core.ProbeFunc{ProbeName: "postgres", Fn: pool.Ping})

	return scheduler.JobDeps{
		Attendance:    db.NewAttendanceRepository(pool),
		Roles:         db.NewRoleAssignmentRepository(pool),
		Profiles:      db.NewProfileRepository(pool),
		Notifications: db.NewNotificationLogRepository(pool),
		History:       db.NewJobHistoryRepository(pool),
	}, nil
}

func (a *App) connectMongo(ctx context.Context, cfg config.MongoConfig) (scheduler.JobDeps, error) {
	client, err := docstore.Connect(ctx, cfg)
	if err != nil {
		return scheduler.JobDeps{}, err
	}
	a.Mongo = client
	a.closers = append(a.closers, client.Disconnect)
	a.Probes = append(a.Probes, core.ProbeFunc{
		ProbeName: "mongo",
		Fn: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	})

	database := client.Database(cfg.Database)
	if err := docstore.EnsureIndexes(ctx, database, cfg); err != nil {
		return scheduler.JobDeps{}, err
	}

	stores := docstore.NewStores(database, cfg)
	return scheduler.JobDeps{
		Attendance:    stores.Attendance,
		Roles:         stores.Roles,
		Profiles:      stores.Profiles,
		Notifications: stores.Notifications,
		History:       stores.JobHistory,
	}, nil
}

// loadAWSConfig loads the default credential chain for the configured region.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config (region=%s): %w", cfg.Region, err)
	}
	return awsCfg, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
