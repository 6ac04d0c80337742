package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/backend"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/config"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/ingest"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/metrics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/server"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	addressFlag := flag.String("address", "", "override listen address")
	maxUploadFlag := flag.String("max-upload", "", "override maximum upload size (e.g. 4MB)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}
	if *maxUploadFlag != "" {
		size, err := server.ParseSize(*maxUploadFlag)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid max upload size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := config.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	appConf := config.Default()
	if strings.TrimSpace(cfg.AppConfig) != "" {
		appConf, err = config.LoadConfiguration(cfg.AppConfig)
		if err != nil {
			logger.Fatal("failed to load application configuration",
				zap.String("op", "main"),
				zap.String("path", cfg.AppConfig),
				zap.Error(err),
			)
		}
	}
	for _, warning := range appConf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store := ingest.NewSessionStore(appConf.Ingest.MaxPointsPerStation)
	var wg sync.WaitGroup

	if appConf.KafkaEnabled() {
		consumer, err := ingest.NewKafkaConsumer(ingest.KafkaConfig{
			Brokers:     appConf.Ingest.Kafka.Brokers,
			Topic:       appConf.Ingest.Kafka.Topic,
			GroupID:     appConf.Ingest.Kafka.GroupID,
			PollTimeout: time.Duration(appConf.Ingest.Kafka.PollTimeoutSeconds) * time.Second,
		}, store, logger, m)
		if err != nil {
			logger.Fatal("failed to create kafka consumer", zap.String("op", "main"), zap.Error(err))
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("failed to close kafka consumer", zap.String("op", "main"), zap.Error(err))
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka consumer stopped", zap.String("op", "main"), zap.Error(err))
			}
		}()
	}

	if appConf.MQTTEnabled() {
		subscriber, err := ingest.NewMQTTSubscriber(ingest.MQTTConfig{
			Broker:   appConf.Ingest.MQTT.Broker,
			Topic:    appConf.Ingest.MQTT.Topic,
			ClientID: appConf.Ingest.MQTT.ClientID,
			QoS:      byte(appConf.Ingest.MQTT.QoS),
		}, store, logger, m)
		if err != nil {
			logger.Fatal("failed to create mqtt subscriber", zap.String("op", "main"), zap.Error(err))
		}
		// connect retries in the background; a slow broker does not block startup
		if err := subscriber.Start(10 * time.Second); err != nil {
			logger.Warn("mqtt broker not reachable yet", zap.String("op", "main"), zap.Error(err))
		}
		defer subscriber.Close()
	}

	opts := server.Options{
		Logger:         logger,
		MaxUploadSize:  cfg.UploadSizeBytes(),
		Version:        version,
		Thresholds:     appConf.Thresholds,
		DatasetTTL:     cfg.DatasetTTLDuration(),
		MaxDatasets:    cfg.MaxDatasets,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        m,
		Sessions:       store,
	}
	if appConf.BackendEnabled() {
		timeout := time.Duration(appConf.Backend.TimeoutSeconds) * time.Second
		opts.Backend = backend.New(appConf.Backend.BaseURL, timeout, logger)
	}

	accessLog := zap.NewStdLog(logger.Named("access")).Writer()
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handlers.CombinedLoggingHandler(accessLog, server.NewHandler(opts)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting charge dashboard server",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSizeBytes", cfg.UploadSizeBytes()),
			zap.Duration("datasetTTL", cfg.DatasetTTLDuration()),
			zap.Int("maxDatasets", cfg.MaxDatasets),
			zap.Bool("backend", appConf.BackendEnabled()),
			zap.Bool("kafka", appConf.KafkaEnabled()),
			zap.Bool("mqtt", appConf.MQTTEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received", zap.String("op", "main"))
	case err, ok := <-errCh:
		if ok {
			logger.Error("server stopped", zap.String("op", "main"), zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.String("op", "main"), zap.Error(err))
	}
	wg.Wait()
}
