package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/contentfactory/source"
	"github.com/c360studio/contentfactory/workflow"
)

func submitCommand(flags *rootFlags) *cobra.Command {
	var contentType string
	var jobID string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit a single document for generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitFile(flags, args[0], jobID, contentType, wait)
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Target content type (use_cases, quiz, trainer_script); empty detects from the document")
	cmd.Flags().StringVar(&jobID, "job-id", "", "Job ID; empty generates one")
	cmd.Flags().BoolVar(&wait, "wait", true, "Block until the job settles or pauses")
	return cmd
}

func submitFile(flags *rootFlags, path, jobID, contentType string, wait bool) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	name := filepath.Base(path)
	text, err := source.DefaultRegistry().Extract(name, data)
	if err != nil {
		return fmt.Errorf("extract document text: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	handle, err := a.manager.Submit(ctx, text, jobID, contentType)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted job %s\n", handle.JobID)

	if !wait {
		return nil
	}

	select {
	case <-ctx.Done():
		logger.Info("Interrupted, job continues in the background")
		a.manager.Wait()
		return nil
	case <-handle.Done:
	}

	summary, err := a.manager.Status(ctx, handle.JobID)
	if err != nil {
		return err
	}

	if summary.CurrentPhase == workflow.PhaseFinalize {
		arts, err := a.manager.Artifacts(ctx, handle.JobID)
		if err != nil {
			return err
		}
		if err := a.writeArtifacts(ctx, handle.JobID, arts); err != nil {
			return err
		}
		fmt.Printf("Artifacts written under %s\n", filepath.Join(cfg.Documents.Dir, handle.JobID))
	}

	return printJSON(summary)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
