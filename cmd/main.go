package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"malaria-scan/config"
	"malaria-scan/internal/api/rest"
	"malaria-scan/internal/api/telegram"
	"malaria-scan/internal/container"
	"malaria-scan/internal/domain/port"
	"malaria-scan/internal/infrastructure/cellpose"
	"malaria-scan/internal/infrastructure/dicom"
	"malaria-scan/internal/infrastructure/onnx"
	"malaria-scan/internal/infrastructure/storage"
	"malaria-scan/internal/infrastructure/vision"
	"malaria-scan/internal/logger"
)

const component = "main"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewConsole(logger.ParseLevel("")).Error(component, err, nil)
		os.Exit(1)
	}

	log := logger.NewConsole(logger.ParseLevel(cfg.LogLevel))
	if err := run(cfg, log); err != nil {
		log.Error(component, err, nil)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	classifier, err := onnx.NewClassifier(cfg.ClassifierPath, cfg.MetadataPath, cfg.ONNXRuntimeLib, cfg.Pipeline.InputSize)
	if err != nil {
		return err
	}
	defer classifier.Close()
	log.Info(component, "classifier loaded", map[string]interface{}{"model": cfg.ClassifierPath})

	var segmenter port.CellSegmenter
	switch cfg.Segmenter {
	case config.SegmenterThreshold:
		segmenter = vision.NewThresholdSegmenter()
	default:
		client := cellpose.NewClient(cfg.CellposeURL, cfg.RequestTimeout)
		if err := client.CheckHealth(ctx); err != nil {
			log.Warning(component, "segmentation service not available", map[string]interface{}{"error": err.Error()})
		}
		segmenter = client
	}

	// Собираем сервисы приложения
	appContainer := container.New(
		storage.NewMemoryUserRepository(),
		storage.NewMemoryAnalysisRepository(),
		store,
		container.Models{
			Decoder:    dicom.NewDecoder(),
			Segmenter:  segmenter,
			Classifier: classifier,
			Renderer:   vision.NewRenderer(),
		},
		cfg.Pipeline,
		log,
	)

	handler := rest.NewHandler(appContainer.AnalysisService, store, log, cfg.RequestTimeout)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rest.NewRouter(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info(component, "HTTP server starting", map[string]interface{}{"addr": cfg.HTTPAddr, "segmenter": cfg.Segmenter})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.AnalysisService,
			store, appContainer.Describer, log, cfg.RequestTimeout)
		if err != nil {
			return err
		}
		go func() {
			log.Info(component, "bot is running", nil)
			if err := bot.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	} else {
		log.Info(component, "TELEGRAM_TOKEN is empty, bot disabled", nil)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
