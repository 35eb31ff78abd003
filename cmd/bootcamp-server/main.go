package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fhirbootcamp/api/internal/config"
	"github.com/fhirbootcamp/api/internal/domain/admin"
	"github.com/fhirbootcamp/api/internal/domain/byod"
	"github.com/fhirbootcamp/api/internal/domain/certs"
	"github.com/fhirbootcamp/api/internal/domain/commerce"
	"github.com/fhirbootcamp/api/internal/domain/ingest"
	"github.com/fhirbootcamp/api/internal/domain/lab"
	"github.com/fhirbootcamp/api/internal/domain/points"
	"github.com/fhirbootcamp/api/internal/domain/quiz"
	"github.com/fhirbootcamp/api/internal/domain/servers"
	"github.com/fhirbootcamp/api/internal/platform/artifacts"
	"github.com/fhirbootcamp/api/internal/platform/auth"
	"github.com/fhirbootcamp/api/internal/platform/db"
	"github.com/fhirbootcamp/api/internal/platform/fhir"
	"github.com/fhirbootcamp/api/internal/platform/middleware"
)

// courseTitleAdapter lets the certificate service resolve course titles
// from the commerce catalog without importing it.
type courseTitleAdapter struct {
	svc *commerce.Service
}

func (a *courseTitleAdapter) CourseTitle(ctx context.Context, slug string) (string, error) {
	course, err := a.svc.Course(ctx, slug)
	if err != nil {
		return "", err
	}
	return course.Title, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "bootcamp-server",
		Short: "FHIR Healthcare Bootcamp API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bootcamp API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "catalog",
		Short: "Seed the commerce catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required to seed the catalog")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := commerce.SeedCatalog(ctx, commerce.NewCatalogRepoPG(pool)); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			fmt.Println("Catalog seeded.")
			return nil
		},
	})

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Shared FHIR client for pings, ingest, and publishing.
	fhirClient := fhir.NewClient(time.Duration(cfg.FHIRTimeoutSec) * time.Second)

	// Artifact storage on disk.
	store, err := artifacts.NewStore(cfg.ArtifactDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize artifact store")
	}

	// Server registry and environment settings.
	settings, err := servers.NewSettingsStore(cfg.SettingsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load environment settings")
	}
	serverRepo := servers.NewMemRepository()
	if err := servers.SeedServers(ctx, serverRepo, cfg.LocalFHIRBaseURL, cfg.PublicFHIRBaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed server registry")
	}
	serversSvc := servers.NewService(serverRepo, settings, fhirClient, cfg.LocalFHIRBaseURL, cfg.PublicFHIRBaseURL)

	// Lab progress and artifacts.
	labSvc := lab.NewService(lab.NewMemProgressRepository(), lab.NewMemArtifactRepository(), store)

	// Bundle ingest, CSV export, observation publishing.
	ingestSvc := ingest.NewService(ingest.NewMemBundleRepository(), labSvc, fhirClient, logger)

	// Quizzes.
	quizzes, err := quiz.LoadFixtures()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load quiz fixtures")
	}
	quizSvc := quiz.NewService(quiz.NewMemQuizRepository(quizzes), quiz.NewMemAttemptRepository())

	// BYOD import and publishing.
	byodSvc := byod.NewService(byod.NewMemSessionRepository(), byod.NewMemObservationRepository(),
		byod.NewMemAppRepository(), fhirClient, labSvc, logger)

	// Commerce: catalog lives in Postgres when a database is configured,
	// in memory otherwise. Purchases are always in memory.
	var catalog commerce.CatalogRepository
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if _, err := db.NewMigrator(pool, "./migrations").Up(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		catalog = commerce.NewCatalogRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		catalog = commerce.NewMemCatalogRepository()
	}
	if err := commerce.SeedCatalog(ctx, catalog); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed catalog")
	}
	commerceSvc := commerce.NewService(catalog, commerce.NewMemPurchaseRepository(), cfg.StripeWebhookKey, logger)

	// Gamification.
	badgeRepo := points.NewMemBadgeRepository()
	if err := points.SeedBadges(ctx, badgeRepo); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed badges")
	}
	pointsSvc := points.NewService(points.NewMemLedgerRepository(), badgeRepo, logger)

	// Certificates.
	verifyBase := fmt.Sprintf("http://localhost:%s/api/certificates/verify", cfg.Port)
	certsSvc := certs.NewService(certs.NewMemEnrollmentRepository(), certs.NewMemCertificateRepository(),
		&courseTitleAdapter{svc: commerceSvc}, verifyBase, logger)

	// Admin console.
	adminSvc := admin.NewService(admin.NewMemFlagRepository(), admin.NewMemUserRepository(), commerceSvc, logger)
	seedDemoUsers(ctx, adminSvc, logger)

	wireGamification(ingestSvc, quizSvc, byodSvc, pointsSvc, logger)
	registerResetters(adminSvc, labSvc, ingestSvc, quizSvc, byodSvc, pointsSvc)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Session-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Unauthenticated surface: payment webhook and certificate verification.
	pub := e.Group("/api")
	pub.Use(middleware.RateLimit(rateLimitCfg))

	api := e.Group("/api")
	api.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{SigningKey: []byte(cfg.JWTSecret)}))
	}

	adminGroup := api.Group("/admin", auth.RequireRole("admin"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	serversHandler := servers.NewHandler(serversSvc)
	serversHandler.RegisterRoutes(api)

	labHandler := lab.NewHandler(labSvc)
	labHandler.RegisterRoutes(api)

	ingestHandler := ingest.NewHandler(ingestSvc)
	ingestHandler.RegisterRoutes(api)

	quizHandler := quiz.NewHandler(quizSvc)
	quizHandler.RegisterRoutes(api)

	byodHandler := byod.NewHandler(byodSvc)
	byodHandler.RegisterRoutes(api)

	commerceHandler := commerce.NewHandler(commerceSvc)
	commerceHandler.RegisterRoutes(api)
	commerceHandler.RegisterWebhookRoutes(pub)
	commerceHandler.RegisterAdminRoutes(adminGroup)

	pointsHandler := points.NewHandler(pointsSvc)
	pointsHandler.RegisterRoutes(api)

	certsHandler := certs.NewHandler(certsSvc)
	certsHandler.RegisterRoutes(api)
	certsHandler.RegisterPublicRoutes(pub)
	certsHandler.RegisterAdminRoutes(adminGroup)

	adminHandler := admin.NewHandler(adminSvc)
	adminHandler.RegisterRoutes(adminGroup)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// wireGamification connects the lab pipelines to the points ledger. Awards
// are keyed by lab session, which doubles as the learner identity in class.
func wireGamification(ingestSvc *ingest.Service, quizSvc *quiz.Service, byodSvc *byod.Service, pointsSvc *points.Service, logger zerolog.Logger) {
	ingestSvc.SetPublishHook(func(ctx context.Context, sessionID, resourceID string) {
		if _, err := pointsSvc.AwardObservationPublished(ctx, sessionID, resourceID); err != nil {
			logger.Warn().Err(err).Msg("observation points award failed")
			return
		}
		if _, err := pointsSvc.AwardBadge(ctx, sessionID, "FHIR_LOOP_CLOSER"); err != nil {
			logger.Warn().Err(err).Msg("badge award failed")
		}
	})

	quizSvc.SetGradeHook(func(ctx context.Context, sessionID, quizID string, score int, passed bool) {
		if !passed {
			return
		}
		if _, err := pointsSvc.AwardQuizCompletion(ctx, sessionID, quizID, score); err != nil {
			logger.Warn().Err(err).Msg("quiz points award failed")
			return
		}
		summary, err := pointsSvc.UserSummary(ctx, sessionID)
		if err != nil {
			return
		}
		completions := 0
		for _, entry := range summary.History {
			if entry.AwardType == points.AwardQuizCompletion {
				completions++
			}
		}
		if completions >= 3 {
			if _, err := pointsSvc.AwardBadge(ctx, sessionID, "QUIZ_MASTER"); err != nil {
				logger.Warn().Err(err).Msg("badge award failed")
			}
		}
	})

	byodSvc.SetPublishHook(func(ctx context.Context, labSessionID string, published int) {
		if published == 0 {
			return
		}
		if _, err := pointsSvc.AwardBadge(ctx, labSessionID, "BYOD_CHAMP"); err != nil {
			logger.Warn().Err(err).Msg("badge award failed")
		}
	})
}

func registerResetters(adminSvc *admin.Service, labSvc *lab.Service, ingestSvc *ingest.Service, quizSvc *quiz.Service, byodSvc *byod.Service, pointsSvc *points.Service) {
	adminSvc.RegisterResetter("lab", labSvc.ResetAll)
	adminSvc.RegisterResetter("bundles", ingestSvc.ResetAll)
	adminSvc.RegisterResetter("quizzes", quizSvc.ResetAll)
	adminSvc.RegisterResetter("byod", byodSvc.ResetAll)
	adminSvc.RegisterResetter("points", func(ctx context.Context) (int, error) {
		return 0, pointsSvc.ResetAll(ctx)
	})
}

func seedDemoUsers(ctx context.Context, adminSvc *admin.Service, logger zerolog.Logger) {
	demo := []struct {
		email, name string
		roles       []string
	}{
		{"instructor@bootcamp.dev", "Instructor", []string{"student", "admin"}},
		{"student1@bootcamp.dev", "Demo Student One", nil},
		{"student2@bootcamp.dev", "Demo Student Two", nil},
	}
	for _, d := range demo {
		if _, err := adminSvc.CreateUser(ctx, d.email, d.name, d.roles); err != nil {
			logger.Warn().Err(err).Str("email", d.email).Msg("demo user seed failed")
		}
	}
}
