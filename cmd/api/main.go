package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"checksheet-backend/internal/adapter/blobstore"
	httpadp "checksheet-backend/internal/adapter/http"
	appmw "checksheet-backend/internal/adapter/middleware"
	"checksheet-backend/internal/adapter/notify"
	oplogadp "checksheet-backend/internal/adapter/oplog"
	"checksheet-backend/internal/adapter/repository/mysql"
	"checksheet-backend/internal/adapter/sessionstore"
	"checksheet-backend/internal/config"
	"checksheet-backend/internal/domain/event"
	"checksheet-backend/internal/infrastructure/cache"
	"checksheet-backend/internal/infrastructure/db"
	"checksheet-backend/internal/infrastructure/kv"
	"checksheet-backend/internal/infrastructure/logging"
	"checksheet-backend/internal/infrastructure/messaging"
	"checksheet-backend/internal/infrastructure/metrics"
	"checksheet-backend/internal/templatecatalog"
	"checksheet-backend/internal/usecase/approval"
	"checksheet-backend/internal/usecase/checksheet"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "checksheet-api",
		Short:         "QC check-sheet backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "Config file path (yaml, json or toml)")

	cmd.AddCommand(serveCmd(&configPath), migrateCmd(&configPath), templatesCmd(&configPath))
	return cmd
}

// setup loads and validates the configuration and builds the logger.
func setup(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogPretty, os.Stdout), nil
}

func openDB(ctx context.Context, cfg *config.Config, migrate bool) (*gorm.DB, error) {
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := mysql.RunMigrations(ctx, gdb, cfg.DBDriver); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return gdb, nil
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			if _, err := openDB(cmd.Context(), cfg, true); err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
			return nil
		},
	}
}

func templatesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage check-sheet templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import [glob]",
		Short: "Import YAML templates into the database (default: TEMPLATES_GLOB)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			pattern := cfg.TemplatesGlob
			if len(args) == 1 {
				pattern = args[0]
			}
			gdb, err := openDB(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			n, err := templatecatalog.Import(cmd.Context(), mysql.NewTemplateRepository(gdb), pattern, log)
			if err != nil {
				return err
			}
			log.Info().Int("count", n).Str("glob", pattern).Msg("templates imported")
			return nil
		},
	})
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	plant, err := cfg.Location()
	if err != nil {
		return err
	}
	gdb, err := openDB(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	rdb, err := cache.OpenRedis(cache.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	bdb, err := kv.OpenBadger(cfg.BadgerDir)
	if err != nil {
		return err
	}
	defer bdb.Close()

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	checks := map[string]httpadp.HealthCheck{
		"db":    sqlDB.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	var events event.Publisher
	if cfg.NATSURL != "" {
		nc, err := messaging.ConnectNATS(cfg.NATSURL, "checksheet-api")
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Drain()
		events = notify.NewNATSPublisher(nc, cfg.NATSSubjectPrefix, log)
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}

	m := metrics.New()
	blobs := blobstore.NewBadgerStore(bdb, cfg.PhotoPrefix)
	templates := mysql.NewTemplateRepository(gdb)
	records := mysql.NewRecordRepository(gdb)
	items := mysql.NewItemRepository(gdb)
	changeLogs := mysql.NewChangeLogRepository(gdb)
	uow := mysql.NewGormUoW(gdb)
	opLog := oplogadp.NewDBLogger(mysql.NewOpLogRepository(gdb), log)

	cs := checksheet.NewUsecase(checksheet.Deps{
		Sessions:  sessionstore.NewRedisStore(rdb, time.Duration(cfg.SessionTTLMins)*time.Minute),
		Templates: templates,
		Records:   records,
		Items:     items,
		UoW:       uow,
		Blobs:     blobs,
		OpLog:     opLog,
		Events:    events,
		Observer:  m,
		Log:       log.With().Str("usecase", "checksheet").Logger(),
		Location:  plant,
	})
	ap := approval.NewUsecase(approval.Deps{
		Records:    records,
		Items:      items,
		ChangeLogs: changeLogs,
		Templates:  templates,
		UoW:        uow,
		OpLog:      opLog,
		Events:     events,
		Log:        log.With().Str("usecase", "approval").Logger(),
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover(), appmw.Metrics(m), requestLogger(log))
	httpadp.Register(e, httpadp.RouterDeps{
		Checksheet:   cs,
		Approval:     ap,
		Blobs:        blobs,
		PhotoPrefix:  cfg.PhotoPrefix,
		Redis:        rdb,
		IdempTTL:     time.Duration(cfg.IdempTTLSecs) * time.Second,
		Metrics:      m.Handler(),
		HealthChecks: checks,
		Log:          log,
	})

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("db_driver", cfg.DBDriver).Bool("nats", events != nil).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("actor_id", c.Request().Header.Get(appmw.HeaderActorID)).
				Msg("request")
			return nil
		},
	})
}
