package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osstd/The-Blog/internal/api"
	"github.com/osstd/The-Blog/internal/blog"
	"github.com/osstd/The-Blog/internal/captcha"
	"github.com/osstd/The-Blog/internal/config"
	gdb "github.com/osstd/The-Blog/internal/db"
	"github.com/osstd/The-Blog/internal/log"
	"github.com/osstd/The-Blog/internal/metrics"
	"github.com/osstd/The-Blog/internal/notify"
	"github.com/osstd/The-Blog/internal/session"
	"github.com/osstd/The-Blog/pkg/kv"
	_ "github.com/osstd/The-Blog/pkg/kv/memory"
	_ "github.com/osstd/The-Blog/pkg/kv/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting blog server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"db_backend", cfg.Database.Backend,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("blog")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Initialize storage
	database, err := gdb.NewDatabase(&gdb.Config{
		Backend: cfg.Database.Backend,
		DSN:     cfg.Database.PostgresDSN,
	}, logger)
	if err != nil {
		logger.Fatalw("Failed to create database", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gdb.ConnectAndMigrate(ctx, database, gdb.AllSchemas()); err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	defer database.Disconnect(context.Background())
	logger.Infow("Database initialized")

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := gdb.SeedAdmin(ctx, database, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
			logger.Fatalw("Failed to seed admin account", "error", err)
		}
		logger.Infow("Admin account ready", "email", cfg.Admin.Email)
	} else {
		logger.Warnw("No admin credentials configured, skipping admin seed")
	}

	// Setup the session store. A Redis outage at startup degrades to
	// in-process sessions rather than refusing to boot.
	store, err := kv.NewStore(ctx, &kv.Config{
		Backend:  cfg.Cache.Backend,
		RedisURL: cfg.Cache.RedisURL,
	})
	if err != nil {
		logger.Warnw("KV backend unavailable, falling back to memory", "error", err)
		store, err = kv.NewStore(ctx, &kv.Config{Backend: "memory"})
		if err != nil {
			logger.Fatalw("Failed to create kv store", "error", err)
		}
	}
	defer store.Close()

	sessions := session.NewManager(store, cfg.Security.SessionTTL, cfg.Security.CookieSecure, logger)

	// Setup notification collaborators
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Inbox:    cfg.Mail.Inbox,
	}, logger)

	sms := notify.NewTwilioSender(notify.TwilioConfig{
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
		From:       cfg.SMS.From,
		To:         cfg.SMS.To,
	}, logger)

	dispatcher := notify.NewDispatcher(cfg.Security.NotifyConcurrency, 30*time.Second, logger)
	defer dispatcher.Close()

	verifier := captcha.NewGoogleVerifier(cfg.Captcha.SecretKey, cfg.Captcha.VerifyURL, logger)

	// Setup services
	accounts := blog.NewAccountService(database, logger)
	posts := blog.NewPostService(database, logger)
	comments := blog.NewCommentService(database, logger)
	ratings := blog.NewRatingService(database, logger)
	perms := blog.NewPermissionService(database, mailer, sms, dispatcher, logger)

	renderer, err := api.NewRenderer(logger)
	if err != nil {
		logger.Fatalw("Failed to load templates", "error", err)
	}

	handler := api.NewHandler(api.HandlerConfig{
		Database:   database,
		Accounts:   accounts,
		Posts:      posts,
		Comments:   comments,
		Ratings:    ratings,
		Perms:      perms,
		Sessions:   sessions,
		Captcha:    verifier,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Renderer:   renderer,
		Metrics:    metricsObj,
		Logger:     logger,
		SiteKey:    cfg.Captcha.SiteKey,
	})
	middleware := api.NewMiddleware(logger, metricsObj, sessions, accounts)

	router := handler.Routes(middleware, api.RouteConfig{
		CORSOrigins:    cfg.Security.CORSAllowedOrigins,
		MetricsHandler: metricsHandler,
		RequestTimeout: 60 * time.Second,
	})

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("Server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}
