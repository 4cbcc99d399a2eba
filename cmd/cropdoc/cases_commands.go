package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cropdoc/internal/casestore"
)

func newCasesCommand(ctx *commandContext) *cobra.Command {
	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "Inspect persisted diagnosis cases",
	}

	casesCmd.AddCommand(newCasesListCommand(ctx))
	casesCmd.AddCommand(newCasesShowCommand(ctx))
	casesCmd.AddCommand(newCasesPruneCommand(ctx))

	return casesCmd
}

func openStore(ctx *commandContext) (*casestore.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return casestore.Open(cfg)
}

func newCasesListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent cases, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cases, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cases) == 0 {
				fmt.Fprintln(out, "No cases recorded")
				return nil
			}

			rows := make([][]string, 0, len(cases))
			for _, c := range cases {
				top := "-"
				if len(c.Candidates) > 0 {
					top = c.Candidates[0].Disease
				}
				rows = append(rows, []string{
					c.ID,
					displayCrop(c.Crop),
					string(c.State),
					top,
					c.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Case", "Crop", "State", "Top Candidate", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of cases to show")
	return cmd
}

func newCasesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show one case in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("case %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Case:     %s\n", c.ID)
			fmt.Fprintf(out, "Crop:     %s\n", displayCrop(c.Crop))
			if c.GrowthStage != "" {
				fmt.Fprintf(out, "Stage:    %s\n", c.GrowthStage)
			}
			fmt.Fprintf(out, "State:    %s\n", c.State)
			fmt.Fprintf(out, "Created:  %s\n", c.CreatedAt.Local().Format(time.RFC1123))
			if c.Symptoms != "" {
				fmt.Fprintf(out, "Symptoms: %s\n", c.Symptoms)
			}
			if c.ImageCount > 0 {
				fmt.Fprintf(out, "Images:   %d\n", c.ImageCount)
			}
			if c.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", c.Error)
			}

			if len(c.Candidates) > 0 {
				rows := make([][]string, 0, len(c.Candidates))
				for i, candidate := range c.Candidates {
					rows = append(rows, []string{
						fmt.Sprintf("%d", i+1),
						candidate.Disease,
						formatScore(candidate.Score),
						truncate(candidate.Rationale, 70),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Disease", "Score", "Rationale"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				))
			}

			colorize := shouldColorize(out)
			renderPlanSection(out, "Diagnostics", c.Plan.Diagnostics, colorize)
			renderPlanSection(out, "Agronomy", c.Plan.Agronomy, colorize)
			renderPlanSection(out, "Chemical", c.Plan.Chemical, colorize)
			renderPlanSection(out, "Biological", c.Plan.Bio, colorize)

			if len(c.Annotations) > 0 {
				fmt.Fprintln(out, "\nTrace annotations:")
				for _, note := range c.Annotations {
					fmt.Fprintf(out, "  - %s\n", note)
				}
			}
			return nil
		},
	}
}

func newCasesPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && olderThan <= 0 {
				return fmt.Errorf("specify --older-than or --all")
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cutoff := olderThan
			if all {
				cutoff = 0
			}
			deleted, err := store.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d case(s)\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Delete cases older than this duration (e.g. 720h)")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every case")
	return cmd
}
