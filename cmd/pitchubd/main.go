package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/analysis"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/classify"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/logging"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox/gmail"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/pipeline"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/refresh"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/server"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := store.NewSQLiteStore(cfg.Database.Path, logger.Named("store"))
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}
	defer db.Close()

	provider, err := gmail.NewClient(ctx, cfg.Mailbox, logger.Named("gmail"))
	if err != nil {
		logger.Fatal("creating mailbox client", zap.Error(err))
	}

	classifier := classify.New(classify.FromConfig(cfg.Sectors))
	analyzer := analysis.New(cfg.Analysis, logger.Named("analysis"))

	pipe := pipeline.New(pipeline.Deps{
		Provider:      provider,
		Store:         db,
		Classifier:    classifier,
		Logger:        logger.Named("pipeline"),
		MaxConcurrent: cfg.Pipeline.MaxConcurrent,
		RatePerSec:    cfg.Pipeline.RatePerSec,
	})

	refresher := refresh.New(
		pipe,
		server.DefaultUserScope,
		cfg.RefreshInterval(),
		cfg.Pipeline.DefaultPageSize,
		logger.Named("refresh"),
	)
	refresher.Start(ctx)
	defer refresher.Stop()

	srv := server.New(server.Deps{
		Pipeline:        pipe,
		Store:           db,
		Provider:        provider,
		Analyzer:        analyzer,
		Logger:          logger.Named("server"),
		RequestTimeout:  cfg.RequestTimeout(),
		DefaultPageSize: cfg.Pipeline.DefaultPageSize,
	})

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
