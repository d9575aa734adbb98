package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/contentfactory/workflow"
)

func statusCommand(flags *rootFlags) *cobra.Command {
	var showArtifacts bool

	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show job status, or list all jobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := ""
			if len(args) > 0 {
				jobID = args[0]
			}
			return showStatus(flags, jobID, showArtifacts)
		},
	}

	cmd.Flags().BoolVar(&showArtifacts, "artifacts", false, "Include generated artifact text")
	return cmd
}

func showStatus(flags *rootFlags, jobID string, showArtifacts bool) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return fmt.Errorf("status requires a NATS URL; job state is not persisted otherwise")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if jobID == "" {
		states, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		summaries := make([]workflow.Summary, 0, len(states))
		for _, state := range states {
			summaries = append(summaries, state.Summarize())
		}
		return printJSON(summaries)
	}

	summary, err := a.manager.Status(ctx, jobID)
	if err != nil {
		return err
	}
	if !showArtifacts {
		return printJSON(summary)
	}

	arts, err := a.manager.Artifacts(ctx, jobID)
	if err != nil {
		return err
	}
	return printJSON(struct {
		workflow.Summary
		Artifacts workflow.Artifacts `json:"artifacts"`
	}{summary, arts})
}
