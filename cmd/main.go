package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/pinboard/internal/config"
	"github.com/UnknownOlympus/pinboard/internal/geocache"
	"github.com/UnknownOlympus/pinboard/internal/geocoding"
	"github.com/UnknownOlympus/pinboard/internal/metrics"
	"github.com/UnknownOlympus/pinboard/internal/persistence"
	"github.com/UnknownOlympus/pinboard/internal/repository"
	"github.com/UnknownOlympus/pinboard/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// exportBasename names the files written to the export directory on shutdown.
const exportBasename = "markers"

// healthCheck reports whether a backing service is reachable.
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	var checks []healthCheck

	// Open the durable slot store that keeps the marker set between runs.
	slotConfig := repository.SlotConfig{
		Type:       repository.SlotType(cfg.Storage.Type),
		SQLitePath: cfg.Storage.SQLitePath,
		Logger:     logger,
	}
	if slotConfig.Type == repository.SlotTypePostgres {
		dtb, err := repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dtb.Close()

		slotConfig.PostgresDB = dtb
		checks = append(checks, healthCheck{name: "postgres", ping: dtb.Ping})
	}

	slot, err := repository.NewSlot(ctx, slotConfig)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	if closer, ok := slot.(io.Closer); ok {
		defer closer.Close()
	}

	// Restore the marker set and start a fresh undo history.
	adapter := persistence.NewAdapter(slot, cfg.Storage.Slot, logger, appMetrics)
	annotations := service.NewAnnotationService(logger, adapter, cfg.HistoryCapacity, appMetrics)
	annotations.Load(ctx)

	if cfg.Reset && !annotations.Reset(ctx) {
		logger.WarnContext(ctx, "Stored markers could not be cleared", "slot", cfg.Storage.Slot)
	}

	if cfg.ImportFile != "" {
		count, importErr := annotations.ImportFile(ctx, cfg.ImportFile)
		if importErr != nil {
			logger.ErrorContext(ctx, "Failed to import markers", "file", cfg.ImportFile, "error", importErr)
		} else {
			logger.InfoContext(ctx, "Imported markers", "file", cfg.ImportFile, "count", count)
		}
	}

	// Create geocoding provider using factory pattern based on configuration
	// This allows runtime selection between different providers (Google, Visicom, Nominatim, etc.)
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.ProviderType),
		APIKey:    cfg.Geocoder.APIKey,
		RateLimit: cfg.Geocoder.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Geocoder.ProviderType)

	var cache geocache.Cache = geocache.NewMemory(cfg.Geocoder.CacheTTL)
	if cfg.Geocoder.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Geocoder.RedisAddr})
		defer client.Close()

		cache = geocache.NewRedis(client, cfg.Geocoder.CacheTTL, logger)
		checks = append(checks, healthCheck{
			name: "redis",
			ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}

	geoService := service.NewGeocodingService(
		logger,
		geoProvider,
		cfg.Geocoder.ProviderType, // Provider name for metrics
		cache,
		appMetrics,
		cfg.Geocoder.QueryPrefix,
	)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"markers", len(annotations.Markers()), "storage", cfg.Storage.Type)

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, checks, cfg.Port)

	if cfg.Env == envLocal {
		warmUp(ctx, logger, geoService, annotations)
	}

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	if cfg.ExportDir != "" {
		paths, exportErr := annotations.ExportAll(cfg.ExportDir, exportBasename)
		if exportErr != nil {
			logger.ErrorContext(ctx, "Failed to export markers", "dir", cfg.ExportDir, "error", exportErr)
		} else {
			logger.InfoContext(ctx, "Markers exported", "files", paths)
		}
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// warmUp resolves the addresses of the first few markers so that a local run
// shows the geocoder and its cache working.
func warmUp(ctx context.Context, log *slog.Logger, geo *service.GeocodingService, annotations *service.AnnotationService) {
	const limit = 3

	for i, marker := range annotations.Markers() {
		if i == limit {
			return
		}
		place, err := geo.Reverse(ctx, marker.Lat, marker.Lng)
		if err != nil {
			log.WarnContext(ctx, "Reverse geocoding failed", "marker", marker.ID, "error", err)
			continue
		}
		log.DebugContext(ctx, "Marker resolved", "marker", marker.ID, "title", marker.Title, "address", place.DisplayName)
	}
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - checks: Backing services pinged on every health check.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	checks []healthCheck,
	port int,
) {
	http.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		for _, check := range checks {
			if err := check.ping(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, check.name+" ping failed"
				break
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      http.DefaultServeMux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
