package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cropdoc/internal/config"
	"cropdoc/internal/diagnose"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiBlue  = "\x1b[34m"
)

func diagnoseLimits(cfg *config.Config) diagnose.Limits {
	return diagnose.Limits{
		MaxImages:     cfg.Vision.MaxImages,
		MaxImageBytes: cfg.MaxImageBytes(),
		AllowedMIME:   cfg.Vision.AllowedMIME,
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func sectionHeader(title string, colorize bool) string {
	if colorize {
		return ansiBold + ansiBlue + title + ":" + ansiReset
	}
	return title + ":"
}

var titleCaser = cases.Title(language.English)

// displayCrop renders a crop identifier for table output.
func displayCrop(crop diagnose.Crop) string {
	return titleCaser.String(string(crop))
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.3f", score)
}

func joinStages(stages []diagnose.GrowthStage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
