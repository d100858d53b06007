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
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Skotchmaster/boutique/internal/conflicts"
	"github.com/Skotchmaster/boutique/internal/httpserver"
	"github.com/Skotchmaster/boutique/internal/repo"
	"github.com/Skotchmaster/boutique/internal/search"
	"github.com/Skotchmaster/boutique/internal/service"
	pkgdb "github.com/Skotchmaster/boutique/pkg/db"
	"github.com/Skotchmaster/boutique/pkg/events"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/boutique/pkg/middleware/logging"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "listen port, overrides SERVER_PORT")
	_ = viper.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func serve(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = pkgdb.Close(db) }()

	if err := repo.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer func() { _ = publisher.Close() }()

	var index search.Index
	if cfg.ElasticURL != "" {
		es, err := search.NewESIndex(search.Config{
			URL:      cfg.ElasticURL,
			Username: cfg.ElasticUser,
			Password: cfg.ElasticPassword,
			Index:    cfg.SearchIndex,
		})
		if err != nil {
			return err
		}
		pingCtx, pingCancel := context.WithTimeout(parent, 3*time.Second)
		if err := es.Ping(pingCtx); err != nil {
			logger.Warn("search_index_unreachable", "url", cfg.ElasticURL, "error", err)
		}
		pingCancel()
		index = es
	}

	store := &repo.GormRepo{DB: db}
	catalog := &service.CatalogService{Repo: store, Events: publisher, Index: index}
	mailbox := conflicts.NewMailbox(cfg.ConflictTTL)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, httpserver.SessionCookie))
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())
	e.Use(csrf.Middleware(csrf.Config{
		AuthCookie: authmw.AccessCookie,
		Secure:     cfg.CookieSecure,
		SkipPaths:  []string{"/admin/login", "/admin/logout"},
	}))

	httpserver.Register(e, httpserver.Deps{
		Catalog:   &httpserver.CatalogHTTP{Svc: catalog},
		Manage:    &httpserver.ManageHTTP{Svc: catalog},
		Inventory: &httpserver.InventoryHTTP{Svc: catalog, Mailbox: mailbox},
		Purchase: &httpserver.PurchaseHTTP{
			Svc:     &service.PurchaseService{Repo: store, Events: publisher},
			Mailbox: mailbox,
		},
		Orders: &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: store, Events: publisher}},
		Admin: &httpserver.AdminHTTP{
			PasswordHash:    cfg.AdminPasswordHash,
			JWTSecret:       cfg.JWTAccessSecret,
			InsecureCookies: !cfg.CookieSecure,
		},
		JWTSecret:       cfg.JWTAccessSecret,
		InsecureCookies: !cfg.CookieSecure,
		Ready:           store.Ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}

	logger.Info("server_stopped")
	return nil
}
