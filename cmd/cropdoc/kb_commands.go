package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cropdoc/internal/kb"
)

func newKBCommand(ctx *commandContext) *cobra.Command {
	kbCmd := &cobra.Command{
		Use:   "kb",
		Short: "Knowledge base utilities",
	}

	kbCmd.AddCommand(newKBListCommand(ctx))
	kbCmd.AddCommand(newKBCheckCommand(ctx))

	return kbCmd
}

func newKBListCommand(ctx *commandContext) *cobra.Command {
	var cropFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the diseases in the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := kb.Load(cfg.Paths.KBDir)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, entry := range index.Entries() {
				if cropFilter != "" && string(entry.Crop) != cropFilter {
					continue
				}
				rows = append(rows, []string{
					displayCrop(entry.Crop),
					entry.Disease,
					entry.ID,
					joinStages(entry.Stages),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Crop", "Disease", "ID", "Stages"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d entries\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&cropFilter, "crop", "", "Only list entries for this crop")
	return cmd
}

func newKBCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the knowledge base catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := kb.Load(cfg.Paths.KBDir)
			if err != nil {
				return fmt.Errorf("knowledge base check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog: %s\n", cfg.Paths.KBDir)
			fmt.Fprintf(out, "Entries: %d\n", index.Len())
			for _, crop := range index.Crops() {
				entries, err := index.EntriesFor(crop)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-10s %d\n", displayCrop(crop), len(entries))
			}
			fmt.Fprintln(out, "Knowledge base valid")
			return nil
		},
	}
}
