// Package config defines the configuration for the attendance summary job
// and its host binaries. Configuration is loaded once at process start
// (Lambda cold start, server boot or CLI invocation) and is immutable
// thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails the load; binaries exit
// immediately.
package config

import (
	"time"

	"hrpulse/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Store backends accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config is the top-level configuration struct. Sub-components receive only
// the subset they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"hrpulse-digest"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres" validate:"oneof=postgres mongo"`

	Server   ServerConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Report   ReportConfig
	AWS      AWSConfig
	Metrics  MetricsConfig

	// Build metadata, injected via ldflags rather than env.
	Build BuildInfo
}

// ServerConfig holds the ops HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`

	// ScheduleEnabled runs the in-process daily trigger. Disable it when an
	// external scheduler invokes the job instead.
	ScheduleEnabled bool `envconfig:"ENABLE_SCHEDULE" default:"true"`
}

// DatabaseConfig holds PostgreSQL connection and pool tuning parameters.
// URL is required only when STORE_BACKEND=postgres.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required_if=Backend postgres"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`

	// Backend mirrors Config.StoreBackend for conditional validation.
	Backend string `envconfig:"STORE_BACKEND" default:"postgres"`
}

// MongoConfig holds document-store settings. URI is required only when
// STORE_BACKEND=mongo.
type MongoConfig struct {
	URI      SecretString `envconfig:"MONGO_URI" validate:"required_if=Backend mongo"`
	Database string       `envconfig:"MONGO_DATABASE" default:"hr"`

	AttendanceCollection      string `envconfig:"MONGO_COLLECTION_ATTENDANCE" default:"attendance_records"`
	RoleAssignmentCollection  string `envconfig:"MONGO_COLLECTION_ROLES" default:"role_assignments"`
	ProfileCollection         string `envconfig:"MONGO_COLLECTION_PROFILES" default:"profiles"`
	NotificationLogCollection string `envconfig:"MONGO_COLLECTION_NOTIFICATIONS" default:"notifications"`
	JobHistoryCollection      string `envconfig:"MONGO_COLLECTION_JOB_HISTORY" default:"job_history"`

	MaxPoolSize    uint64        `envconfig:"MONGO_MAX_POOL_SIZE" default:"50"`
	MinPoolSize    uint64        `envconfig:"MONGO_MIN_POOL_SIZE" default:"5"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"5s"`

	Backend string `envconfig:"STORE_BACKEND" default:"postgres"`
}

// ReportConfig controls what the summary job computes and who receives it.
type ReportConfig struct {
	// Timezone is the IANA zone in which reporting days are cut.
	Timezone  string `envconfig:"REPORT_TIMEZONE" default:"Asia/Ho_Chi_Minh" validate:"required,timezone"`
	DayOffset int    `envconfig:"REPORT_DAY_OFFSET" default:"-1" validate:"lte=0"`

	TargetRoles []string `envconfig:"REPORT_TARGET_ROLES" default:"HR Manager,HR Officer,Administrator" validate:"required,min=1,dive,required"`

	NotificationKind string `envconfig:"NOTIFICATION_KIND" default:"daily_attendance_summary" validate:"required"`

	// StoreCallTimeout bounds every individual store call made by a run.
	StoreCallTimeout time.Duration `envconfig:"STORE_CALL_TIMEOUT" default:"10s" validate:"gt=0"`

	// Concurrency is the number of recipients processed in parallel.
	Concurrency int `envconfig:"DIGEST_CONCURRENCY" default:"1" validate:"min=1,max=32"`

	// DeliveryTime is the local HH:MM at which long-lived hosts fire the job.
	DeliveryTime string `envconfig:"REPORT_DELIVERY_TIME" default:"08:00" validate:"len=5"`
}

// AWSConfig holds AWS resource identifiers.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"ap-southeast-1"`

	// NotificationQueue receives delivery fan-out messages. Empty disables
	// delivery publishing; the notification log is still written.
	NotificationQueue string `envconfig:"SQS_NOTIFICATIONS" validate:"omitempty,url"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// MetricsConfig holds CloudWatch settings.
type MetricsConfig struct {
	Namespace string `envconfig:"METRIC_NAMESPACE" default:"HRPulse"`
	Enabled   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure parsing environment values.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
