package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"violation-service/internal/config"
	"violation-service/internal/db"
	"violation-service/internal/detect"
	httpapi "violation-service/internal/http"
	"violation-service/internal/pipeline"
	"violation-service/internal/repository"
	"violation-service/internal/service"
	"violation-service/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	files, err := storage.NewStore(cfg.Storage.UploadDir, cfg.Storage.ResultsDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare storage directories")
	}

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	repo := repository.NewViolationRepository(gdb)
	violations := service.NewViolationService(repo, log)

	// A missing or broken model is not fatal: uploads then report zero
	// violations instead of erroring.
	var detector detect.Detector
	if cfg.Detector.Enabled {
		dnn, err := detect.NewDNNDetector(cfg.Detector.ModelPath, cfg.Detector.ConfigPath, cfg.Detector.MinConfidence, log)
		if err != nil {
			log.Warn().Err(err).Msg("detection model unavailable, continuing without detector")
		} else {
			detector = dnn
			defer dnn.Close()
		}
	}

	sampler := detect.NewSampler(cfg.Pipeline.MaxFrames, cfg.Pipeline.FrameStride, log)
	annotator := detect.NewAnnotator(cfg.Storage.ResultsDir, log)
	pl := pipeline.New(detector, sampler, annotator, log)

	handler := httpapi.NewHandler(violations, pl, files, cfg, log)
	router := httpapi.NewRouter(handler, cfg, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr()).
			Str("upload_dir", cfg.Storage.UploadDir).
			Str("results_dir", cfg.Storage.ResultsDir).
			Msg("traffic violation detection service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}
