// Package remarks wires the comment store API and the comment view web app
// from environment configuration.
package remarks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/api"
	"github.com/nasermirzaei89/remarks/client"
	"github.com/nasermirzaei89/remarks/db/postgres"
	"github.com/nasermirzaei89/remarks/db/sqlite3"
	"github.com/nasermirzaei89/remarks/discuss"
	"github.com/nasermirzaei89/remarks/random"
	"github.com/nasermirzaei89/remarks/server"
	"github.com/nasermirzaei89/remarks/view"
	"github.com/nasermirzaei89/remarks/web"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultWebPort = "8081"
	defaultAPIURL  = "http://localhost:8080"
)

type UnknownDBDriverError struct {
	Driver string
}

func (err UnknownDBDriverError) Error() string {
	return fmt.Sprintf("unknown database driver %q", err.Driver)
}

type App struct {
	server  *server.Server
	handler http.Handler
	closers []func() error
}

type storage struct {
	userRepo    accounts.UserRepository
	commentRepo discuss.CommentRepository
	pinger      api.Pinger
	close       func() error
}

// NewAPIApp builds the REST comment store backed by DB_DRIVER.
func NewAPIApp(ctx context.Context) (*App, error) {
	store, err := newStorage(ctx, env.GetString("DB_DRIVER", DriverSQLite))
	if err != nil {
		return nil, err
	}

	accountsSvc := accounts.NewService(store.userRepo)

	if err := accountsSvc.LoadUsernameFilter(ctx, 10_000, 0.01); err != nil {
		_ = store.close()

		return nil, fmt.Errorf("failed to load username filter: %w", err)
	}

	discussSvc := discuss.NewService(store.commentRepo, accountsSvc)

	handler := api.NewHandler(
		accountsSvc,
		discussSvc,
		store.pinger,
		env.GetStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	)

	app := &App{
		server:  newServer(server.DefaultPort),
		handler: handler,
		closers: []func() error{store.close},
	}

	return app, nil
}

func newStorage(ctx context.Context, driver string) (*storage, error) {
	switch driver {
	case DriverSQLite:
		db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", sqlite3.DefaultDSN))
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}

		err = sqlite3.MigrateUp(ctx, db)
		if err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}

		return &storage{
			userRepo:    sqlite3.NewUserRepository(db),
			commentRepo: sqlite3.NewCommentRepository(db),
			pinger:      db,
			close:       db.Close,
		}, nil
	case DriverPostgres:
		db, err := postgres.NewDB(ctx, env.GetString("DB_DSN", ""))
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}

		err = postgres.Migrate(ctx, db)
		if err != nil {
			_ = sqlDB.Close()

			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}

		return &storage{
			userRepo:    postgres.NewUserRepository(db),
			commentRepo: postgres.NewCommentRepository(db),
			pinger:      sqlDB,
			close:       sqlDB.Close,
		}, nil
	default:
		return nil, &UnknownDBDriverError{Driver: driver}
	}
}

// NewWebApp builds the server-rendered comment view talking to API_URL.
func NewWebApp(_ context.Context) (*App, error) {
	timeout, err := time.ParseDuration(env.GetString("API_TIMEOUT", client.DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse API_TIMEOUT: %w", err)
	}

	cacheSize, err := strconv.Atoi(env.GetString("VIEW_CACHE_SIZE", strconv.Itoa(web.DefaultCacheSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse VIEW_CACHE_SIZE: %w", err)
	}

	store := client.New(env.GetString("API_URL", defaultAPIURL), client.WithTimeout(timeout))
	username := env.GetString("VIEW_USERNAME", view.DefaultUsername)

	sessionName := env.GetString("SESSION_NAME", "remarks-"+random.Hex(4))
	sessionKey := env.GetString("SESSION_KEY", random.Hex(32))
	cookieStore := newCookieStore(sessionKey, env.GetBool("TLS_ENABLED", false))

	handler, err := web.NewHandler(
		func() *view.View { return view.New(store, username) },
		cookieStore,
		sessionName,
		cacheSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	app := &App{
		server:  newServer(defaultWebPort),
		handler: handler,
	}

	return app, nil
}

// newCookieStore only marks the session cookie Secure when the web app is
// served over TLS, otherwise browsers never send it back.
func newCookieStore(key string, secure bool) *sessions.CookieStore {
	cookieStore := sessions.NewCookieStore([]byte(key))
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = secure
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	return cookieStore
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		for _, closeFn := range app.closers {
			err := closeFn()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func newServer(defaultPort string) *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", defaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}
