package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/contentfactory/source"
	"github.com/c360studio/contentfactory/workflow"
)

func runCommand(flags *rootFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the source folder and process incoming documents",
		Long: `Run scans the configured source folder, submits every supported document
as a generation job, and keeps watching for new and modified files. Jobs
that pause for review are escalated once their review deadline passes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(flags, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address (empty disables)")
	return cmd
}

func runDaemon(flags *rootFlags, metricsAddr string) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := os.MkdirAll(cfg.Source.Dir, 0755); err != nil {
		return fmt.Errorf("create source folder: %w", err)
	}

	watcher, err := source.NewWatcher(cfg.Source.Dir,
		source.WithGlobs(cfg.Source.Include, cfg.Source.Exclude),
		source.WithWatcherLogger(logger),
		source.WithDebounce(cfg.Source.Debounce.Std()),
	)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Metrics server listening", "addr", metricsAddr)
	}

	go a.manager.RunSweeper(ctx, cfg.Review.SweepInterval.Std())
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Source watcher stopped", "error", err)
		}
	}()

	if err := watcher.Scan(ctx); err != nil {
		return fmt.Errorf("initial source scan: %w", err)
	}

	logger.Info("Contentfactory ready",
		"version", Version,
		"source_dir", cfg.Source.Dir,
		"documents_dir", cfg.Documents.Dir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal, waiting for running jobs")
			a.manager.Wait()
			logger.Info("Contentfactory shutdown complete")
			return nil
		case doc := <-watcher.Documents():
			a.submitDocument(ctx, doc)
		}
	}
}

func (a *app) submitDocument(ctx context.Context, doc source.Document) {
	jobID := jobIDFor(doc.Path)

	handle, err := a.manager.Submit(ctx, doc.Text, jobID, "")
	if err != nil {
		if errors.Is(err, workflow.ErrJobExists) {
			a.logger.Debug("Document already has a running job", "job_id", jobID, "path", doc.Path)
		} else {
			a.logger.Warn("Failed to submit document", "path", doc.Path, "error", err)
		}
		return
	}

	a.logger.Info("Submitted document", "job_id", jobID, "path", doc.Path)
	go a.waitAndRender(ctx, handle)
}

// waitAndRender blocks until the job settles or pauses, then renders
// artifacts for finalized jobs.
func (a *app) waitAndRender(ctx context.Context, handle *workflow.JobHandle) {
	<-handle.Done

	summary, err := a.manager.Status(ctx, handle.JobID)
	if err != nil {
		a.logger.Warn("Failed to load job status", "job_id", handle.JobID, "error", err)
		return
	}

	switch {
	case summary.CurrentPhase == workflow.PhaseFinalize:
		arts, err := a.manager.Artifacts(ctx, handle.JobID)
		if err != nil {
			a.logger.Warn("Failed to load artifacts", "job_id", handle.JobID, "error", err)
			return
		}
		if err := a.writeArtifacts(ctx, handle.JobID, arts); err != nil {
			a.logger.Error("Failed to write artifacts", "job_id", handle.JobID, "error", err)
			return
		}
		a.logger.Info("Job finalized",
			"job_id", handle.JobID,
			"content_type", summary.ContentType,
			"scores", summary.Scores)
	case summary.CurrentPhase == workflow.PhaseAbort:
		a.logger.Error("Job aborted",
			"job_id", handle.JobID,
			"error_count", summary.ErrorCount,
			"last_error", summary.LastError)
	case summary.Paused:
		a.logger.Info("Job awaiting human review",
			"job_id", handle.JobID,
			"scores", summary.Scores,
			"last_error", summary.LastError)
	}
}

// jobIDFor derives a stable job ID from a source path so a re-emitted file
// resumes or replaces its own job instead of spawning a new one. The ID
// doubles as a NATS KV key, which allows only [-/_=.a-zA-Z0-9] with
// non-empty dot-separated tokens.
func jobIDFor(path string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '=':
			return r
		case r == '/', r == '.':
			return '.'
		default:
			return '_'
		}
	}, path)

	tokens := make([]string, 0, 4)
	for _, tok := range strings.Split(mapped, ".") {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, ".")
}
