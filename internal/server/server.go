package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	mwecho "github.com/labstack/echo/v4/middleware"
	mwsvc "hwidlock.io/actserver/internal/middleware"

	"hwidlock.io/actserver/internal/config"
	"hwidlock.io/actserver/internal/hwid"
	"hwidlock.io/actserver/internal/sqlite"
	"hwidlock.io/actserver/internal/token"

	adminhttp "hwidlock.io/actserver/internal/http/admin"
	clienthttp "hwidlock.io/actserver/internal/http/client"
)

type Server struct {
	Echo  *echo.Echo
	HTTP  *http.Server
	Store hwid.Store
}

func Build(cfg *config.Config) (*Server, error) {
	//
	// Validate required settings
	//
	if cfg.SigningSecret == "" {
		return nil, errors.New("SIGNING_SECRET environment variable (or signing_secret setting) is required")
	}
	if cfg.AdminToken == "" {
		return nil, errors.New("ADMIN_TOKEN environment variable (or admin_token setting) is required")
	}

	//
	// Registry store
	//
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	//
	// Services
	//
	registrySvc := hwid.NewService(store)
	tokenSvc := token.NewService(cfg.SigningSecret)

	//
	// Handlers
	//
	clientHandler := clienthttp.NewHandler(registrySvc, tokenSvc, cfg.StoreTimeout)
	adminHandler := adminhttp.NewHandler(registrySvc, cfg.StoreTimeout)

	//
	// Echo
	//
	e := echo.New()
	e.HideBanner = true

	// Health endpoints
	e.GET("/livez", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	e.GET("/readyz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.StoreTimeout)
		defer cancel()
		if _, err := store.Read(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "registry not ready")
		}
		return c.String(http.StatusOK, "Ready")
	})

	// Middleware
	e.Use(mwecho.Logger())
	e.Use(mwecho.Recover())

	// Client API
	clienthttp.RegisterRoutes(e, clientHandler)

	// Admin API
	adminGroup := e.Group("/admin")
	adminGroup.Use(mwsvc.AdminTokenAuth(cfg.AdminToken))
	adminhttp.RegisterRoutes(adminGroup, adminHandler)

	//
	// HTTP server
	//
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		Echo:  e,
		HTTP:  srv,
		Store: store,
	}, nil
}

// buildStore constructs the registry backend selected by cfg.Store.
func buildStore(cfg *config.Config) (hwid.Store, error) {
	switch cfg.Store {
	case "file":
		log.Printf("Using file registry '%s'", cfg.RegistryPath)
		return hwid.NewFileStore(cfg.RegistryPath), nil

	case "sqlite":
		log.Printf("Using sqlite registry '%s'", cfg.DBPath)
		db, err := sqlx.Connect("sqlite3", cfg.DBPath)
		if err != nil {
			return nil, err
		}

		// WAL mode is only required once after creating the database,
		// but doesn't hurt to set it each time
		if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
			db.Close()
			return nil, err
		}

		if err := sqlite.RunMigrations(db.DB); err != nil {
			db.Close()
			return nil, err
		}
		return hwid.NewSQLiteStore(db), nil

	case "github":
		if cfg.GitHub.Repo == "" || cfg.GitHub.Path == "" || cfg.GitHub.Token == "" {
			return nil, errors.New("github store requires GITHUB_REPO, GITHUB_PATH and GITHUB_TOKEN")
		}
		log.Printf("Using github registry '%s' in %s", cfg.GitHub.Path, cfg.GitHub.Repo)
		return hwid.NewGitHubStore(hwid.GitHubConfig{
			Repo:   cfg.GitHub.Repo,
			Path:   cfg.GitHub.Path,
			Branch: cfg.GitHub.Branch,
			Token:  cfg.GitHub.Token,
		}), nil

	default:
		return nil, fmt.Errorf("unknown registry store %q (want file, sqlite or github)", cfg.Store)
	}
}
