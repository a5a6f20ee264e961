package main

import (
	"fmt"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/config"
	"github.com/kikiluvv/recut/internal/pipeline"
	"github.com/kikiluvv/recut/internal/plan"
	"github.com/spf13/cobra"
)

// addModeFlags registers the selection flags shared by run and plan.
func addModeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("ranges", "", "explicit windows, e.g. 0:10-0:40,1:05-1:30")
	f.Bool("whole", false, "use the whole video")
	f.Bool("highlights", false, "pick windows from description timestamps and scene cuts (default)")
	f.String("template", "", "fixed multi-segment clips k:segLen:gap[@start], seconds")
	cmd.MarkFlagsMutuallyExclusive("ranges", "whole", "highlights", "template")

	f.Duration("split", 0, "split ranges or the whole video into windows of this length")
	f.Bool("join", false, "join all ranges into a single clip")
	addHighlightFlags(cmd)
	f.Bool("captions", false, "attach re-timed captions (default from config)")
	f.String("lang", "", "caption language (default from config)")
	f.String("name", "", "run name (default: input file name)")
}

func addHighlightFlags(cmd *cobra.Command) {
	cmd.Flags().Int("span", 0, "highlight window length in seconds (default from config)")
	cmd.Flags().Int("count", 0, "number of highlights (default from config)")
}

// addOutputFlags registers flags that only matter when files are written.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("out", "", "output directory (default from config)")
	f.Int("workers", 0, "parallel window renders (default from config)")
	f.String("logo", "", "logo image overlaid on every window")
}

// requestFromFlags turns flags into a pipeline request.
func requestFromFlags(cmd *cobra.Command, cfg *config.Config) (pipeline.Request, error) {
	f := cmd.Flags()
	req := pipeline.Request{
		Mode:     clips.ModeHighlights,
		Split:    cfg.Split.Length,
		Captions: cfg.Captions.Enabled,
		Language: cfg.Captions.Language,
	}

	if f.Changed("ranges") {
		s, _ := f.GetString("ranges")
		ranges, err := plan.ParseRanges(s)
		if err != nil {
			return req, fmt.Errorf("--ranges: %w", err)
		}
		req.Mode = clips.ModeRanges
		req.Ranges = ranges
	}
	if whole, _ := f.GetBool("whole"); whole {
		req.Mode = clips.ModeWhole
	}
	if f.Changed("template") {
		s, _ := f.GetString("template")
		t, err := plan.ParseTemplate(s)
		if err != nil {
			return req, fmt.Errorf("--template: %w", err)
		}
		req.Mode = clips.ModeTemplate
		req.Template = t
	}

	if f.Changed("split") {
		req.Split, _ = f.GetDuration("split")
	}
	if req.Split < 0 {
		return req, fmt.Errorf("--split must not be negative")
	}
	if req.Split > 0 && req.Split < time.Second {
		return req, fmt.Errorf("--split %s is shorter than a second", req.Split)
	}
	req.Join, _ = f.GetBool("join")
	req.Span, _ = f.GetInt("span")
	req.Count, _ = f.GetInt("count")
	if f.Changed("captions") {
		req.Captions, _ = f.GetBool("captions")
	}
	if f.Changed("lang") {
		req.Language, _ = f.GetString("lang")
	}
	req.Name, _ = f.GetString("name")
	return req, nil
}

// applyOutputFlags copies output flags onto the loaded config.
func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.OutputDir, _ = f.GetString("out")
	}
	if f.Changed("workers") {
		cfg.Concurrency, _ = f.GetInt("workers")
	}
	if f.Changed("logo") {
		cfg.Overlays.Logo, _ = f.GetString("logo")
	}
}
