package payment

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/alovak/cardflow-paysim/internal/cardhash"
	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/alovak/cardflow-paysim/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
)

// App is the main application, it contains all the components of the payment
// service and is responsible for starting and stopping them.
type App struct {
	srv        *http.Server
	wg         *sync.WaitGroup
	Addr       string
	logger     *slog.Logger
	config     *Config
	db         *sql.DB
	repository *Repository
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "paysim"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := time.LoadLocation(a.config.ExpiryTZ)
	if err != nil {
		return fmt.Errorf("loading expiry_tz: %w", err)
	}
	expiry.SetDefaultLocation(loc)

	if err := a.openRepository(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.repository.Migrate(ctx); err != nil {
		if a.db != nil {
			a.db.Close()
		}
		return fmt.Errorf("migrating %s: %w", a.repository.Backend(), err)
	}

	svc := NewService(
		NewFormChecker(time.Now, a.config.YearSpan),
		NewCardValidator(time.Now),
		cardhash.NewBcrypt(a.config.BcryptCost),
		a.repository,
		time.Now,
		a.logger,
	)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(middleware.NewStructuredLogger(a.logger))
	router.Use(chimw.Recoverer)

	api := NewAPI(svc, a.logger)
	api.AppendRoutes(router)

	repository := a.repository
	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		if a.db != nil {
			a.db.Close()
		}
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr), slog.String("backend", a.repository.Backend()))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

// openRepository picks the storage backend: pg or sqlite at runtime, mem only when explicitly allowed.
func (a *App) openRepository() error {
	switch a.config.RepoBackend {
	case "pg":
		if a.config.DBDSN == "" {
			return fmt.Errorf("DB DSN is required for pg backend")
		}
		db, err := sql.Open("postgres", a.config.DBDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(10)
		if err := db.Ping(); err != nil {
			db.Close()
			return fmt.Errorf("ping postgres: %w", err)
		}
		a.db = db
		a.repository = NewPGRepository(db)
	case "sqlite":
		db, err := sql.Open("sqlite", a.config.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		// one writer; sqlite serializes writes anyway
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			db.Close()
			return fmt.Errorf("ping sqlite: %w", err)
		}
		a.db = db
		a.repository = NewSQLiteRepository(db)
	case "mem":
		if !a.config.AllowMemBackend {
			return fmt.Errorf("mem repository is disabled at runtime; set allow_mem_backend only in tests")
		}
		a.repository = NewRepository()
	default:
		return fmt.Errorf("unsupported repo backend=%s", a.config.RepoBackend)
	}
	return nil
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			a.logger.Error("shutting down http server", "err", err)
		}
	}

	a.wg.Wait()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("closing db", "err", err)
		}
	}

	a.logger.Info("app stopped")
}
