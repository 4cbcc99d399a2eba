package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/services"
)

func newDiagnoseCommand(ctx *commandContext) *cobra.Command {
	var (
		cropFlag     string
		stageFlag    string
		symptomsFlag string
		imageFlags   []string
		debugFlag    bool
		jsonFlag     bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose a plant disease from symptoms and optional photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			crop, ok := diagnose.ParseCrop(cropFlag)
			if !ok {
				return fmt.Errorf("unsupported crop %q (supported: %s)", cropFlag, supportedCropList())
			}

			images, err := loadImages(imageFlags)
			if err != nil {
				return err
			}

			req := &diagnose.Request{
				Crop:        crop,
				GrowthStage: diagnose.ParseStage(stageFlag),
				Symptoms:    symptomsFlag,
				Images:      images,
			}

			orchestrator, store, err := ctx.buildOrchestrator()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
			response, err := orchestrator.Diagnose(runCtx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonFlag {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(response)
			}

			renderResponse(out, response, debugFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&cropFlag, "crop", "", "Crop under diagnosis (required)")
	cmd.Flags().StringVar(&stageFlag, "stage", "", "Growth stage of the crop")
	cmd.Flags().StringVarP(&symptomsFlag, "symptoms", "s", "", "Free-text symptom description")
	cmd.Flags().StringArrayVarP(&imageFlags, "image", "i", nil, "Path to a leaf photo (repeatable)")
	cmd.Flags().BoolVar(&debugFlag, "debug", false, "Show stage timings in the rendered output")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw response as JSON")
	_ = cmd.MarkFlagRequired("crop")

	return cmd
}

func supportedCropList() string {
	crops := diagnose.SupportedCrops()
	parts := make([]string, len(crops))
	for i, c := range crops {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func loadImages(paths []string) ([]diagnose.Image, error) {
	var images []diagnose.Image
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", path, err)
		}
		images = append(images, diagnose.Image{
			Filename: filepath.Base(path),
			Data:     data,
		})
	}
	return images, nil
}

func renderResponse(out io.Writer, response *diagnose.Response, showTimings bool) {
	colorize := shouldColorize(out)

	if colorize {
		fmt.Fprintf(out, "%sCase %s%s\n\n", ansiBold, response.CaseID, ansiReset)
	} else {
		fmt.Fprintf(out, "Case %s\n\n", response.CaseID)
	}

	if len(response.Candidates) == 0 {
		fmt.Fprintln(out, "No disease candidates matched the reported symptoms.")
	} else {
		rows := make([][]string, 0, len(response.Candidates))
		for i, c := range response.Candidates {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				c.Disease,
				formatScore(c.Score),
				truncate(c.Rationale, 70),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Disease", "Score", "Rationale"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
		))
	}

	renderPlanSection(out, "Diagnostics", response.Plan.Diagnostics, colorize)
	renderPlanSection(out, "Agronomy", response.Plan.Agronomy, colorize)
	renderPlanSection(out, "Chemical", response.Plan.Chemical, colorize)
	renderPlanSection(out, "Biological", response.Plan.Bio, colorize)

	if len(response.VisualFeatures) > 0 {
		labels := make([]string, 0, len(response.VisualFeatures))
		for label := range response.VisualFeatures {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		fmt.Fprintf(out, "\n%s\n", sectionHeader("Visual features", colorize))
		for _, label := range labels {
			fmt.Fprintf(out, "  %s: %s\n", label, formatScore(response.VisualFeatures[label]))
		}
	}

	if showTimings && response.Debug != nil {
		keys := make([]string, 0, len(response.Debug.Timings))
		for key := range response.Debug.Timings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Fprintf(out, "\n%s\n", sectionHeader("Timings", colorize))
		for _, key := range keys {
			fmt.Fprintf(out, "  %-10s %.3fs\n", key, response.Debug.Timings[key])
		}
	}

	fmt.Fprintln(out)
	for _, disclaimer := range response.Disclaimers {
		fmt.Fprintln(out, disclaimer)
	}
}

func renderPlanSection(out io.Writer, title string, items []string, colorize bool) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", sectionHeader(title, colorize))
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
