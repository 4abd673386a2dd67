// Command job-runner invokes the attendance summary job directly, bypassing
// the Lambda shim. It is meant for local development, backfills and
// operational debugging.
//
// Usage:
//
//	job-runner run
//	job-runner run --reference-time 2024-03-02T01:00:00Z
//	job-runner preview --reference-time 2024-03-02T01:00:00Z
//	job-runner window --reference-time 2024-03-02T01:00:00Z
//	job-runner migrate
//
// Configuration is read from the environment (or .env) exactly as the
// deployed binaries read it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hrpulse/internal/app"
	"hrpulse/internal/config"
	"hrpulse/internal/db"
	"hrpulse/internal/scheduler"
	"hrpulse/internal/types"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "job-runner",
		Short:        "Run the daily attendance summary job by hand",
		SilenceUsage: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(windowCmd())
	root.AddCommand(migrateCmd())
	return root
}

// --------------------------------------------------------------------------
// run
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var refTime string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job once and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseReferenceTime(refTime, time.Now)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, _ *config.Config, a *app.App) error {
				result := a.Job.RunAt(ctx, now)
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if result.Status == scheduler.RunFailed {
					return fmt.Errorf("run failed: %s", result.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&refTime, "reference-time", "", "Reference time (RFC3339); defaults to now")
	return cmd
}

// --------------------------------------------------------------------------
// preview
// --------------------------------------------------------------------------

func previewCmd() *cobra.Command {
	var refTime string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the window, summary and recipients without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseReferenceTime(refTime, time.Now)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, _ *config.Config, a *app.App) error {
				p, err := a.Job.Preview(ctx, now)
				if err != nil {
					return fmt.Errorf("preview: %w", err)
				}
				printPreview(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&refTime, "reference-time", "", "Reference time (RFC3339); defaults to now")
	return cmd
}

// --------------------------------------------------------------------------
// window
// --------------------------------------------------------------------------

func windowCmd() *cobra.Command {
	var (
		refTime  string
		timezone string
		offset   int
	)
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the reporting window a run would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseReferenceTime(refTime, time.Now)
			if err != nil {
				return err
			}
			loc, err := config.ReportConfig{Timezone: timezone}.Location()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), scheduler.ComputeWindow(now, offset, loc))
		},
	}
	cmd.Flags().StringVar(&refTime, "reference-time", "", "Reference time (RFC3339); defaults to now")
	cmd.Flags().StringVar(&timezone, "timezone", envOr("REPORT_TIMEZONE", "Asia/Ho_Chi_Minh"), "IANA reporting time zone")
	cmd.Flags().IntVar(&offset, "day-offset", scheduler.DefaultDayOffset, "Day offset from the reference day")
	return cmd
}

// --------------------------------------------------------------------------
// migrate
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the notification log and job history tables (postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				if a.Postgres == nil {
					return fmt.Errorf("migrate requires STORE_BACKEND=postgres, got %q", cfg.StoreBackend)
				}
				if err := db.ApplySchema(ctx, a.Postgres); err != nil {
					return err
				}
				logger.Info("schema applied")
				if err := db.ApplyReadIndexes(ctx, a.Postgres); err != nil {
					logger.Warn("some read indexes were not created", "error", err)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func withApp(fn func(ctx context.Context, cfg *config.Config, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	}
	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = app.NewLogger(os.Stderr, cfg.LogLevel, false)

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wire job: %w", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("closing stores", "error", err)
		}
	}()

	return fn(ctx, cfg, a)
}

// parseReferenceTime returns now() for an empty flag and the parsed RFC 3339
// instant otherwise.
func parseReferenceTime(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, types.NewAppError(types.ErrCodeValidationInvalidTime,
			fmt.Sprintf("invalid --reference-time %q (want RFC3339)", s), err)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPreview(w io.Writer, p scheduler.Preview) {
	fmt.Fprintf(w, "Period:     %s\n", p.Window.PeriodKey)
	fmt.Fprintf(w, "Window:     %s .. %s\n", p.Window.Start.Format(time.RFC3339Nano), p.Window.End.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "Records:    %d\n", p.Summary.Total)

	names := make([]string, 0, len(p.Recipients))
	for _, r := range p.Recipients {
		label := r.Profile.FullName
		if label == "" {
			label = r.ProfileID
		}
		names = append(names, label)
	}
	fmt.Fprintf(w, "Recipients: %d", len(p.Recipients))
	if len(names) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)

	for _, d := range p.Dropped {
		fmt.Fprintf(w, "Dropped:    %s (%s)\n", d.ProfileID, d.Reason)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Message)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
