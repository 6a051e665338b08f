package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/api"
	"github.com/banksecure/paysim/internal/config"
	"github.com/banksecure/paysim/internal/service"
	"github.com/banksecure/paysim/internal/store"
	"github.com/banksecure/paysim/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// Ledger selection: Postgres when configured, otherwise the seeded
	// in-memory ledger so the simulator runs standalone.
	var ledger store.Ledger
	if cfg.DBSource != "" {
		if err := store.Migrate(cfg.DBSource); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		pg, err := store.NewPostgres(context.Background(), cfg.DBSource, cfg.DBTimeout)
		if err != nil {
			logger.Fatal("unable to connect to database", zap.Error(err))
		}
		defer pg.Close()
		ledger = pg
		logger.Info("using postgres ledger")
	} else {
		mem := store.NewMemory()
		mem.SeedDemo()
		ledger = mem
		logger.Info("using in-memory ledger with demo data")
	}

	// Core services.
	locks := service.NewKeyedLocks()
	validator := service.NewValidator(ledger, service.ValidatorOpts{
		TxnLimit:       cfg.TxnLimit,
		UserCancelRate: cfg.UserCancelRate,
		NetworkRejRate: cfg.NetworkRejRate,
		DuplicateRate:  cfg.DuplicateRate,
	}, logger)
	injector := service.NewInjector(service.InjectorOpts{
		FailureRate:        cfg.FailureRate,
		HighValueThreshold: cfg.HighValueThreshold,
		NightStartHour:     cfg.NightStartHour,
		NightEndHour:       cfg.NightEndHour,
	})
	executor := service.NewExecutor(ledger, validator, injector, locks, logger)
	complaints := service.NewComplaintService(ledger, locks, logger)

	pool := worker.NewPool(cfg.ComplaintQueue, complaints, logger)
	pool.Start(cfg.ComplaintWorkers)

	handler := api.NewHandler(ledger, executor, complaints, pool, logger)

	// Router.
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/transfers", handler.CreateTransferHandler).Methods("POST")
	apiV1.HandleFunc("/deposits", handler.CreateDepositHandler).Methods("POST")
	apiV1.HandleFunc("/transactions/{ref}", handler.GetTransactionHandler).Methods("GET")
	apiV1.HandleFunc("/complaints", handler.CreateComplaintHandler).Methods("POST")
	apiV1.HandleFunc("/complaints/{ref}", handler.GetComplaintHandler).Methods("GET")
	apiV1.HandleFunc("/complaints/{ref}/resolve", handler.ResolveComplaintHandler).Methods("POST")
	apiV1.HandleFunc("/accounts/validate", handler.ValidateAccountHandler).Methods("POST")
	apiV1.HandleFunc("/accounts/{userID}", handler.GetAccountHandler).Methods("GET")
	apiV1.HandleFunc("/accounts/{userID}/transactions", handler.ListTransactionsHandler).Methods("GET")
	apiV1.HandleFunc("/manager/complaints", handler.ListComplaintsHandler).Methods("GET")

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	pool.Shutdown()

	logger.Info("server stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
