package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/contentfactory/workflow"
)

func resumeCommand(flags *rootFlags) *cobra.Command {
	var phase string
	var wait bool

	cmd := &cobra.Command{
		Use:   "resume <job-id> <approve|reject|regenerate>",
		Short: "Apply a review decision to a paused job",
		Long: `Resume applies a reviewer's decision to a job paused in human review.

approve     accepts the generated content and finalizes the job
reject      restarts generation from scratch, or aborts once retries run out
regenerate  reruns one generation phase and re-checks quality`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resumeJob(flags, args[0], args[1], phase, wait)
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "Generation phase to rerun for regenerate (knowledge_extraction, scenario_design, assessment_creation, script_generation)")
	cmd.Flags().BoolVar(&wait, "wait", true, "Block until the job settles or pauses again")
	return cmd
}

func resumeJob(flags *rootFlags, jobID, decision, phase string, wait bool) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return fmt.Errorf("resume requires a NATS URL; job state is not persisted otherwise")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	action := workflow.ResumeAction{
		Decision: workflow.Decision(decision),
		Phase:    workflow.Phase(phase),
	}

	summary, err := a.manager.Resume(ctx, jobID, action)
	if err != nil {
		return err
	}
	fmt.Printf("Resumed job %s with decision %s\n", jobID, decision)

	if wait {
		a.manager.Wait()
		summary, err = a.manager.Status(ctx, jobID)
		if err != nil {
			return err
		}
		if summary.CurrentPhase == workflow.PhaseFinalize {
			arts, err := a.manager.Artifacts(ctx, jobID)
			if err != nil {
				return err
			}
			if err := a.writeArtifacts(ctx, jobID, arts); err != nil {
				return err
			}
		}
	}

	return printJSON(summary)
}
