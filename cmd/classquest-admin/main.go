package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/db"
	"github.com/noah-isme/classquest-api/internal/repository"
	"github.com/noah-isme/classquest-api/internal/service"
	"github.com/noah-isme/classquest-api/pkg/cache"
	"github.com/noah-isme/classquest-api/pkg/config"
	"github.com/noah-isme/classquest-api/pkg/database"
	"github.com/noah-isme/classquest-api/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "classquest-admin",
		Short:         "Maintenance tasks for the ClassQuest database",
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	root.AddCommand(migrateCmd(), reconcileCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|redo|status|version|up-to N|down-to N]",
		Short: "Run schema migrations (defaults to up)",
		Args:  cobra.ArbitraryArgs,
		RunE:  runMigrate,
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute ranks, lesson counts, enrollment progress and teacher counters",
		RunE:  runReconcile,
	}
}

// viperForCmd binds a command's flags and CLASSQUEST_* environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CLASSQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// setup loads the shared configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	v := viperForCmd(cmd)
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logr, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	command, rest := "up", []string(nil)
	if len(args) > 0 {
		command, rest = args[0], args[1:]
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	conn, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck

	if err := database.Migrate(ctx, conn, db.Migrations, "migrations", command, logr, rest...); err != nil {
		return err
	}
	logr.Info("migrate finished", zap.String("command", command))
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, logr, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := commandContext(cmd)
	defer cancel()

	conn, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck

	users := repository.NewUserRepository(conn)
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Leaderboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, cached leaderboard will expire on its own", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Leaderboard.CacheTTL, logr, true)
		}
	}
	leaderboard := service.NewLeaderboardService(users, cacheSvc, metrics, cfg.Leaderboard.CacheTTL, logr)

	svc := service.NewReconcileService(
		repository.NewTxManager(conn),
		users,
		repository.NewCourseRepository(conn),
		repository.NewEnrollmentRepository(conn),
		repository.NewCompletionRepository(conn),
		leaderboard,
		logr,
	)
	report, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "students ranked: %d\ncourses updated: %d\nenrollments updated: %d\nteachers updated: %d\n",
		report.StudentsRanked, report.CoursesUpdated, report.EnrollmentsUpdated, report.TeachersUpdated)
	return nil
}
