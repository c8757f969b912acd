package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brigadez/db"
	"brigadez/db/migrations"
	"brigadez/internal/auth"
	"brigadez/internal/config"
	"brigadez/internal/handlers"
	"brigadez/internal/logger"
	"brigadez/internal/milestone"
	"brigadez/internal/priority"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()
	if *configPath == "" {
		*configPath = "config.yaml"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Cannot init logger: %v", err)
	}
	defer lg.Sync()

	dbConn, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		lg.Fatal("Cannot connect to DB", zap.Error(err))
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	dbConn.SetConnMaxIdleTime(time.Minute)

	if err := migrations.Run(dbConn.DB, lg); err != nil {
		lg.Fatal("Migrations failed", zap.Error(err))
	}

	store := db.NewStorage(dbConn, lg, cfg.DB.SlowQueryThreshold)
	prioritySvc := priority.NewService(store, priority.Options{
		Strategy:    cfg.Priority.ReorderStrategy,
		Parallelism: cfg.DB.MaxOpenConns,
	}, lg.Named("priority"))
	milestoneSvc := milestone.NewService(store, milestone.Options{
		TaskTitle:  cfg.Rectification.TaskTitle,
		TaskWindow: cfg.Rectification.TaskWindow,
	}, lg.Named("milestone"))

	h := handlers.NewHandler(store, prioritySvc, milestoneSvc, lg.Named("http"))
	verifier := auth.NewVerifier(cfg.JWT.Secret)
	r := handlers.NewRouter(h, verifier.Middleware)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		lg.Info("Starting server", zap.String("addr", cfg.Server.Address),
			zap.String("reorder_strategy", cfg.Priority.ReorderStrategy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("Graceful shutdown failed", zap.Error(err))
	}
}
