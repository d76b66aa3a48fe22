package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/msalah0e/mentorgraph/internal/config"
	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/export"
	"github.com/msalah0e/mentorgraph/internal/loop"
	"github.com/msalah0e/mentorgraph/internal/ui"
	"github.com/spf13/cobra"
)

// maxFrames bounds a headless render. A layout that has not settled by
// then is exported as it stands.
const maxFrames = 20000

type renderOptions struct {
	Output  string
	Format  string
	Year    string
	Arrange bool
	Frozen  bool
	Prompt  bool
}

func renderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Lay out the network headlessly and export it",
		Long: "Runs the simulation on a virtual clock until it settles, fits the view and\n" +
			"writes the result as an SVG snapshot, a Graphviz DOT file or a JSON frame.",
		Example: "  mentorgraph render -o network.svg\n" +
			"  mentorgraph render --year 2023/2024 --arrange --format dot -o -\n" +
			"  mentorgraph render --students students.yaml --tutoring tutoring.yaml --prompt",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			log := newLogger(cfg)
			ds, err := loadDataset(cmd.Context(), cfg, log)
			if err != nil {
				ui.Bad.Printf("  Failed to load dataset: %v\n", err)
				os.Exit(1)
			}
			loc, err := renderGraph(cmd.Context(), cfg, log, ds, opts, os.Stdin, os.Stdout)
			if err != nil {
				ui.Bad.Printf("  Render failed: %v\n", err)
				os.Exit(1)
			}
			switch {
			case loc == "":
				ui.Warn.Fprintf(os.Stderr, "  %s Export cancelled\n", ui.WarnIcon())
			case opts.Output != "-":
				ui.Good.Fprintf(os.Stderr, "  %s Saved %s\n", ui.StatusIcon(true), loc)
			}
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "Output file, or - for stdout (default: export.filename)")
	f.StringVarP(&opts.Format, "format", "f", "svg", "Output format: svg, dot, json")
	f.StringVarP(&opts.Year, "year", "y", "", "Only show links of one academic year")
	f.BoolVar(&opts.Arrange, "arrange", false, "Arrange nodes in bands by promotion")
	f.BoolVar(&opts.Frozen, "frozen", false, "Freeze forces before exporting")
	f.BoolVar(&opts.Prompt, "prompt", false, "Ask where to save the snapshot")

	_ = cmd.RegisterFlagCompletionFunc("format", formatCompletionFunc)
	_ = cmd.RegisterFlagCompletionFunc("year", yearCompletionFunc)
	return cmd
}

// renderGraph drives a view on a manual clock and writes the export. It
// returns where the output went, or "" when the user cancelled.
func renderGraph(ctx context.Context, cfg *config.Config, log *slog.Logger, ds *dataset.Dataset, opts renderOptions, stdin io.Reader, stdout io.Writer) (string, error) {
	switch opts.Format {
	case "svg", "dot", "json":
	default:
		return "", fmt.Errorf("unknown format %q (want svg, dot or json)", opts.Format)
	}

	clock := loop.NewManualClock(time.Now())
	l := loop.New(clock)
	defer l.Close()
	v, err := newView(l, cfg, log)
	if err != nil {
		return "", err
	}
	settle := func() {
		if n := loop.RunUntilIdle(l, clock, cfg.View.Frame(), maxFrames); n >= maxFrames {
			log.Warn("layout did not settle", "frames", n)
		}
	}

	v.Reload(ds)
	if opts.Year != "" {
		if err := v.SetYearFilter(opts.Year); err != nil {
			return "", err
		}
	}
	settle()
	if opts.Frozen {
		v.ToggleFreeze()
		settle()
	}
	if opts.Arrange {
		v.ArrangeByYear()
		settle()
	}
	v.FitView()
	settle()

	switch opts.Format {
	case "dot":
		return writeOutput(opts.Output, "mentorgraph.dot", []byte(v.Graph().ExportDOT()), stdout)
	case "json":
		data, err := json.MarshalIndent(v.State(), "", "  ")
		if err != nil {
			return "", err
		}
		return writeOutput(opts.Output, "mentorgraph.json", append(data, '\n'), stdout)
	}

	var dest export.Downloader
	switch {
	case opts.Prompt:
		dest = export.PromptDest{FileDest: export.FileDest{Dir: filepath.Dir(opts.Output)}, In: stdin, Out: os.Stderr}
	case opts.Output == "-":
		dest = export.WriterDest{W: stdout}
	default:
		dest = export.FileDest{Dir: ".", Path: opts.Output}
	}
	out, err := v.ExportSnapshot(ctx, dest)
	if err != nil {
		return "", err
	}
	if out.Cancelled {
		return "", nil
	}
	return out.Location, nil
}

func writeOutput(path, fallback string, data []byte, stdout io.Writer) (string, error) {
	if path == "-" {
		_, err := stdout.Write(data)
		return path, err
	}
	if path == "" {
		path = fallback
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
