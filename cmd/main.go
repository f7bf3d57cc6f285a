package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sbilibin2017/gw-expense-tracker/docs"
	"github.com/sbilibin2017/gw-expense-tracker/internal/db"
	"github.com/sbilibin2017/gw-expense-tracker/internal/handlers"
	"github.com/sbilibin2017/gw-expense-tracker/internal/jwt"
	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/middlewares"
	"github.com/sbilibin2017/gw-expense-tracker/internal/repositories"
	"github.com/sbilibin2017/gw-expense-tracker/internal/services"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-expense-tracker API
// @version 1.0.0
// @description Minimal expense tracker backed by an external identity provider
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

type config struct {
	appHost, appPort, logLevel string

	databaseURL                    string
	pgMaxOpenConns, pgMaxIdleConns int
	pgConnMaxLifetimeSecond        int
	migrateOnStart                 bool

	redisHost          string
	redisPort, redisDB int
	redisPassword      string
	redisExpSecond     int

	publishableKey, secretKey      string
	sessionCookieName              string
	signInURL, signUpURL           string
	afterSignInURL, afterSignUpURL string
}

// parseConfig loads environment variables from a file and returns
// the application, database, Redis, logging and identity provider configuration.
// The database URL and both identity provider keys are required.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	cfg.appHost = getEnv("APP_HOST", "localhost")
	cfg.appPort = getEnv("APP_PORT", "8080")
	cfg.logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.databaseURL = getEnv("DATABASE_URL", "")
	if cfg.pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if cfg.pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}
	if cfg.pgConnMaxLifetimeSecond, err = strconv.Atoi(getEnv("POSTGRES_CONN_MAX_LIFETIME_SECOND", "300")); err != nil {
		return
	}
	if cfg.migrateOnStart, err = strconv.ParseBool(getEnv("MIGRATE_ON_START", "true")); err != nil {
		return
	}

	// Redis config, an empty host disables the user cache
	cfg.redisHost = getEnv("REDIS_HOST", "")
	if cfg.redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if cfg.redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	cfg.redisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.redisExpSecond, err = strconv.Atoi(getEnv("REDIS_EXP_SECOND", "60")); err != nil {
		return
	}

	// Identity provider config
	cfg.publishableKey = getEnv("IDP_PUBLISHABLE_KEY", "")
	cfg.secretKey = getEnv("IDP_SECRET_KEY", "")
	cfg.sessionCookieName = getEnv("SESSION_COOKIE_NAME", jwt.SessionCookieName)
	cfg.signInURL = getEnv("SIGN_IN_URL", "/sign-in")
	cfg.signUpURL = getEnv("SIGN_UP_URL", "/sign-up")
	cfg.afterSignInURL = getEnv("AFTER_SIGN_IN_URL", "/")
	cfg.afterSignUpURL = getEnv("AFTER_SIGN_UP_URL", "/")

	var missing []string
	if cfg.databaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.publishableKey == "" {
		missing = append(missing, "IDP_PUBLISHABLE_KEY")
	}
	if cfg.secretKey == "" {
		missing = append(missing, "IDP_SECRET_KEY")
	}
	if len(missing) > 0 {
		err = fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return
}

// publicRoutes keeps the identity pages reachable without a session.
// Hosted (absolute) sign-in URLs are not served here and need no exemption.
func publicRoutes(urls ...string) []string {
	var patterns []string
	for _, u := range urls {
		if strings.HasPrefix(u, "/") && u != "/" {
			patterns = append(patterns, strings.TrimSuffix(u, "/")+"(.*)")
		}
	}
	return patterns
}

// run initializes the logger, database, Redis and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.logLevel)

	// Apply schema migrations
	if cfg.migrateOnStart {
		if err := db.Migrate(cfg.databaseURL); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool := db.NewPool(cfg.databaseURL,
		db.WithMaxOpenConns(cfg.pgMaxOpenConns),
		db.WithMaxIdleConns(cfg.pgMaxIdleConns),
		db.WithConnMaxLifetime(time.Duration(cfg.pgConnMaxLifetimeSecond)*time.Second),
	)
	defer pool.Close()

	conn, err := pool.DB(ctx)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}

	// Connect to Redis
	var userCache services.UserCache
	if cfg.redisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.redisHost, cfg.redisPort),
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis connection error: %w", err)
		}
		userCache = repositories.NewUserCacheRepository(rdb, time.Duration(cfg.redisExpSecond)*time.Second)
		logger.Log.Infow("user cache enabled", "addr", rdb.Options().Addr)
	}

	// Initialize session verifier
	sessions := jwt.New(
		jwt.WithSecretKey(cfg.secretKey),
		jwt.WithCookieName(cfg.sessionCookieName),
	)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(conn)
	userWriteRepo := repositories.NewUserWriteRepository(conn)
	expenseReadRepo := repositories.NewExpenseReadRepository(conn)
	expenseWriteRepo := repositories.NewExpenseWriteRepository(conn)

	// Initialize services
	provisioningService := services.NewProvisioningService(userReadRepo, userWriteRepo, userCache)
	expenseService := services.NewExpenseService(expenseWriteRepo, expenseReadRepo)

	// Route guard
	matcher, err := middlewares.NewRouteMatcher(
		middlewares.DefaultProtectedRoutes,
		publicRoutes(cfg.signInURL, cfg.signUpURL)...,
	)
	if err != nil {
		return fmt.Errorf("invalid route patterns: %w", err)
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(middlewares.AuthMiddleware(matcher, sessions, cfg.signInURL))

	r.Get("/", handlers.NewHomeHandler(provisioningService, expenseService, cfg.signInURL))
	r.Post("/expenses", handlers.NewCreateExpenseHandler(provisioningService, expenseService, cfg.signInURL))
	r.Get("/api/me", handlers.NewMeHandler(provisioningService))

	if strings.HasPrefix(cfg.signInURL, "/") {
		r.Get(cfg.signInURL, handlers.NewSignInHandler(handlers.AuthPageConfig{
			PublishableKey: cfg.publishableKey,
			AfterURL:       cfg.afterSignInURL,
			AlternateURL:   cfg.signUpURL,
		}))
	}
	if strings.HasPrefix(cfg.signUpURL, "/") {
		r.Get(cfg.signUpURL, handlers.NewSignUpHandler(handlers.AuthPageConfig{
			PublishableKey: cfg.publishableKey,
			AfterURL:       cfg.afterSignUpURL,
			AlternateURL:   cfg.signInURL,
		}))
	}

	r.Handle("/static/*", handlers.NewStaticHandler())

	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%s", cfg.appHost, cfg.appPort)
	docs.SwaggerInfo.Version = buildVersion
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.appHost, cfg.appPort)),
	))

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.appHost, cfg.appPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.appHost, cfg.appPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
