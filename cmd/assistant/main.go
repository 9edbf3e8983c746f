// cmd/assistant/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopping-assistant/internal/common/auth"
	"shopping-assistant/internal/common/config"
	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/observability"
	"shopping-assistant/internal/common/storage"
	catalogclient "shopping-assistant/internal/core/catalog-client"
	compareset "shopping-assistant/internal/core/compare-set"
	"shopping-assistant/internal/core/favorites"
)

// app bundles the wired components every command works against.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	session   *auth.Session
	catalog   *catalogclient.Client
	compare   *compareset.Manager
	favorites *favorites.Service
	errs      *commonerrors.ErrorHandler
}

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		help()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := wire(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", map[string]interface{}{"error": err})
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	code := a.run(ctx, os.Args[1], os.Args[2:])
	cleanup()
	os.Exit(code)
}

func wire(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, func(), error) {
	store, closeStore, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open storage: %w", err)
	}

	obs := observability.New(cfg.App.Name)
	stopMetrics := serveMetrics(cfg.Metrics.Address, log)

	cleanup := func() {
		stopMetrics()
		obs.Shutdown()
		if err := closeStore(); err != nil {
			log.Warn("closing storage failed", map[string]interface{}{"error": err})
		}
	}

	session := auth.NewSession(store)
	catalog := catalogclient.NewClient(
		catalogclient.LoadConfig(cfg),
		session,
		log,
		catalogclient.WithObservability(obs),
		catalogclient.WithUnauthenticatedHook(redirectToLogin),
	)

	compare, err := compareset.NewManager(compareset.LoadConfig(cfg), store, log)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		session:   session,
		catalog:   catalog,
		compare:   compare,
		favorites: favorites.NewService(catalog, session, log, redirectToLogin, cfg.Catalog.Login.EntryPoint),
		errs:      commonerrors.NewErrorHandler(log),
	}, cleanup, nil
}

// serveMetrics exposes the prometheus registry when an address is configured.
func serveMetrics(addr string, log logger.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", map[string]interface{}{"address": addr, "error": err})
		}
	}()
	log.Info("metrics server listening", map[string]interface{}{"address": addr})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func redirectToLogin(entryPoint string) {
	fmt.Fprintf(os.Stderr, "Please log in to continue (%s): run `assistant login -email ... -password ...`\n", entryPoint)
}

func (a *app) run(ctx context.Context, cmd string, args []string) int {
	var err error
	switch cmd {
	case "products":
		err = a.cmdProducts(ctx, args)
	case "product":
		err = a.cmdProduct(ctx, args)
	case "history":
		err = a.cmdHistory(ctx, args)
	case "search":
		err = a.cmdSearch(ctx, args)
	case "suggest":
		err = a.cmdSuggest(ctx, args)
	case "compare":
		err = a.cmdCompare(ctx, args)
	case "favorites":
		err = a.cmdFavorites(ctx, args)
	case "login":
		err = a.cmdLogin(ctx, args)
	case "register":
		err = a.cmdRegister(ctx, args)
	case "me":
		err = a.cmdMe(ctx)
	case "logout":
		err = a.cmdLogout(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		help()
		return 2
	}
	return a.report(cmd, err)
}

// report turns a command error into user output and an exit status.
func (a *app) report(cmd string, err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	stdErr, disposition := a.errs.Handle(cmd, err)
	switch disposition {
	case commonerrors.DispositionNotice:
		fmt.Fprintln(os.Stderr, stdErr.Message)
	case commonerrors.DispositionRedirectLogin:
		// the redirect hook already told the user where to go
	case commonerrors.DispositionDegrade:
		fmt.Fprintf(os.Stderr, "%s (try again later)\n", stdErr.Message)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

func help() {
	fmt.Println(`Usage: assistant <command> [arguments]

Catalog:
  products [-sort s] [-limit n]       List products
  product <id>                        Show a product
  history <id>                        Show price history with summary
  search [-q text] [filters]          Search; without -q lists all products
        filters: -min-price -max-price -brand -min-rating -storage -ram -battery
  suggest [text...]                   Type-ahead; reads keystrokes from stdin when no text is given

Compare (up to 3 products):
  compare add <id> | remove <id> | list | clear | show

Favorites (requires login):
  favorites list | add <id> | remove <id> | check <id...> | toggle <id>

Account:
  login -email e -password p
  register -name n -email e -password p
  me
  logout`)
}
