package main

import (
	"fmt"
	"path/filepath"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/config"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/ffmpeg"
	"github.com/kikiluvv/recut/internal/overlays"
	"github.com/kikiluvv/recut/internal/pipeline"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/internal/source"
	openaitr "github.com/kikiluvv/recut/internal/transcribe/openai"
	"github.com/kikiluvv/recut/internal/transcribe/whispercpp"
	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var runCmd = &cobra.Command{
	Use:   "run [input video]",
	Short: "Plan, render and assemble clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyOutputFlags(cmd, cfg)

		req, err := requestFromFlags(cmd, cfg)
		if err != nil {
			return err
		}
		pipe, err := newPipeline(cfg, args[0])
		if err != nil {
			return err
		}

		job, err := pipe.Prepare(cmd.Context(), req)
		if err != nil {
			return err
		}
		m, err := pipe.Execute(cmd.Context(), job)
		if err != nil {
			return err
		}

		log.Info().
			Str("run", m.ID).
			Str("output", m.Dir).
			Int("clips", m.Produced()).
			Int("warnings", len(m.Warnings)).
			Str("captions", m.Captions).
			Msg("done")
		if m.Produced() == 0 {
			return fmt.Errorf("no clip produced: %w", clips.ErrEmptyClip)
		}
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [input video]",
	Short: "Print the segment plan and effect profiles without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyOutputFlags(cmd, cfg)
		req, err := requestFromFlags(cmd, cfg)
		if err != nil {
			return err
		}
		pipe, err := newPipeline(cfg, args[0])
		if err != nil {
			return err
		}
		job, err := pipe.Prepare(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printYAML(cmd, planView(job))
	},
}

var highlightsCmd = &cobra.Command{
	Use:   "highlights [input video]",
	Short: "Score the video and list the best windows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		req := pipeline.Request{Mode: clips.ModeHighlights}
		req.Span, _ = cmd.Flags().GetInt("span")
		req.Count, _ = cmd.Flags().GetInt("count")

		pipe, err := newPipeline(cfg, args[0])
		if err != nil {
			return err
		}
		job, err := pipe.Prepare(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, h := range job.Highlights {
			fmt.Fprintf(out, "%d. %s - %s  score=%.2f  timestamps=%d cuts=%d  %s\n",
				i+1,
				util.FormatDuration(h.Window.Start),
				util.FormatDuration(h.Window.End),
				h.Score, h.TimestampHits, h.CutHits, h.Reason)
		}
		for _, w := range job.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "recut.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if util.FileExists(path) && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printYAML(cmd, config.FromContext(cmd.Context()))
	},
}

var listCmd = &cobra.Command{
	Use:       "list [overlays|effects]",
	Short:     "List available resources",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"overlays", "effects"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		out := cmd.OutOrStdout()

		switch args[0] {
		case "overlays":
			reg := overlays.NewRegistry()
			for name, path := range cfg.Overlays.Overlays {
				reg.Register(name, path)
			}
			reg.Register(overlays.Logo, cfg.Overlays.Logo)
			for _, name := range reg.List() {
				path, _ := reg.Get(name)
				state := "ok"
				if !util.FileExists(path) {
					state = "missing"
				}
				fmt.Fprintf(out, "%-12s %-8s %s\n", name, state, path)
			}
			return nil
		case "effects":
			return printYAML(cmd, cfg.Effects)
		default:
			return fmt.Errorf("unknown resource %q", args[0])
		}
	},
}

func init() {
	addModeFlags(runCmd)
	addOutputFlags(runCmd)
	addModeFlags(planCmd)
	planCmd.Flags().String("logo", "", "logo image overlaid on every window")
	addHighlightFlags(highlightsCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// newPipeline wires the ffmpeg executor, the local source and the
// configured caption backend into a pipeline.
func newPipeline(cfg *config.Config, input string) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}

	exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
		Audio: ffmpeg.AudioEncoding{
			Codec:   cfg.FFmpeg.AudioCodec,
			Bitrate: cfg.FFmpeg.AudioBitrate,
		},
	})
	if err != nil {
		return nil, err
	}

	src, err := source.NewLocal(log.Logger, abs, exec, cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	tr, err := newTranscriber(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(log.Logger, cfg, pipeline.Deps{
		Source:      src,
		Transcoder:  exec,
		Scenes:      exec,
		Media:       exec,
		Transcriber: tr,
	})
}

// newTranscriber returns nil for the "none" backend; the pipeline then
// relies on caption tracks that ship with the source.
func newTranscriber(cfg *config.Config) (ports.Transcriber, error) {
	switch cfg.Captions.Backend {
	case config.BackendWhisperCpp:
		return whispercpp.New(log.Logger,
			cfg.Captions.WhisperBin,
			cfg.Captions.WhisperModel,
			filepath.Join(cfg.WorkDir, "whisper")), nil
	case config.BackendOpenAI:
		a, err := openaitr.New(log.Logger, openaitr.Options{
			APIKey:  cfg.Captions.OpenAIKey,
			BaseURL: cfg.Captions.OpenAIBase,
			Model:   cfg.Captions.OpenAIModel,
			Timeout: cfg.RenderTimeout,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, nil
	}
}

type windowView struct {
	Start   string          `yaml:"start"`
	End     string          `yaml:"end"`
	Profile effects.Profile `yaml:"profile"`
}

type clipView struct {
	Label   string       `yaml:"label"`
	Windows []windowView `yaml:"windows"`
}

type jobView struct {
	ID       string     `yaml:"id"`
	Input    string     `yaml:"input"`
	Duration string     `yaml:"duration"`
	Mode     clips.Mode `yaml:"mode"`
	Logo     string     `yaml:"logo,omitempty"`
	Clips    []clipView `yaml:"clips"`
	Warnings []string   `yaml:"warnings,omitempty"`
}

func planView(job *pipeline.Job) jobView {
	v := jobView{
		ID:       job.ID,
		Input:    job.Input,
		Duration: util.FormatDuration(job.Duration),
		Mode:     job.Plan.Mode,
		Logo:     job.Overlays.Logo,
	}
	for _, g := range job.Plan.Groups {
		cv := clipView{Label: g.Label}
		for _, wi := range g.Windows {
			w := job.Plan.Windows[wi]
			cv.Windows = append(cv.Windows, windowView{
				Start:   util.FormatDuration(w.Start),
				End:     util.FormatDuration(w.End),
				Profile: job.Profiles[wi],
			})
		}
		v.Clips = append(v.Clips, cv)
	}
	v.Warnings = append(v.Warnings, job.Plan.Warnings...)
	v.Warnings = append(v.Warnings, job.Warnings...)
	return v
}

func printYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
