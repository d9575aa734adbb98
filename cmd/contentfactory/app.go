package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentfactory/config"
	"github.com/c360studio/contentfactory/llm"
	"github.com/c360studio/contentfactory/storage"
	"github.com/c360studio/contentfactory/workflow"
)

// app wires the configured generation client, stores, and workflow manager.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	nc      *nats.Conn
	store   workflow.StateStore
	manager *workflow.Manager
	docs    *storage.FilesystemStore
}

// newApp builds the full stack. With no NATS URL configured, state lives in
// memory and dies with the process.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	service := llm.NewHTTPService(
		cfg.Generation.Endpoint,
		cfg.Generation.APIKey,
		cfg.Generation.Model,
		llm.WithServiceLogger(logger),
	)
	limiter := llm.NewRateLimiter(cfg.RateLimit.Calls, cfg.RateLimit.Window.Std())
	client := llm.NewClient(service, limiter,
		llm.WithLogger(logger),
		llm.WithValidation(cfg.Validation),
		llm.WithDefaults(cfg.Generation.Timeout.Std(), cfg.Generation.MaxRetries),
	)

	a := &app{cfg: cfg, logger: logger}

	var tracking workflow.TrackingStore
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg.NATS.URL, logger)
		if err != nil {
			return nil, err
		}
		a.nc = nc

		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
		stateStore, err := storage.NewStateStore(ctx, js)
		if err != nil {
			nc.Close()
			return nil, err
		}
		trackingStore, err := storage.NewTrackingStore(ctx, js)
		if err != nil {
			nc.Close()
			return nil, err
		}
		a.store = stateStore
		tracking = trackingStore
	} else {
		logger.Info("No NATS URL configured, keeping job state in memory")
		a.store = workflow.NewMemoryStore()
	}

	engine := workflow.NewEngine(client,
		workflow.WithStore(a.store),
		workflow.WithEngineLogger(logger),
		workflow.WithReviewTimeout(cfg.Review.Timeout.Std()),
	)

	managerOpts := []workflow.ManagerOption{workflow.WithManagerLogger(logger)}
	if tracking != nil {
		managerOpts = append(managerOpts, workflow.WithTracking(tracking))
	}
	a.manager = workflow.NewManager(engine, a.store, managerOpts...)

	docs, err := storage.NewFilesystemStore(cfg.Documents.Dir)
	if err != nil {
		a.close()
		return nil, err
	}
	a.docs = docs

	return a, nil
}

func (a *app) close() {
	if a.nc != nil {
		a.nc.Close()
	}
}

// writeArtifacts renders a finished job's outputs under the documents root,
// one folder per job.
func (a *app) writeArtifacts(ctx context.Context, jobID string, arts workflow.Artifacts) error {
	files := map[string]string{
		"knowledge_analysis.md": arts.KnowledgeAnalysis,
		"use_cases.md":          arts.UseCases,
		"quiz.md":               arts.Quiz,
		"trainer_script.md":     arts.TrainerScript,
	}

	for name, content := range files {
		if content == "" {
			continue
		}
		meta := storage.DocumentMeta{
			ID:       jobID + "/" + name,
			Name:     name,
			MimeType: "text/markdown",
		}
		if _, err := a.docs.Upload(ctx, []byte(content), meta); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func connectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	logger.Info("Connecting to NATS", "url", url)

	nc, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return nc, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or leave nats.url empty to keep job state in memory.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
