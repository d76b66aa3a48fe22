package cmd

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"github.com/msalah0e/mentorgraph/internal/activity"
	"github.com/msalah0e/mentorgraph/internal/config"
	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/logging"
	"github.com/msalah0e/mentorgraph/internal/loop"
	"github.com/msalah0e/mentorgraph/internal/scene"
	"github.com/msalah0e/mentorgraph/internal/ui"
	"github.com/msalah0e/mentorgraph/internal/view"
	"github.com/spf13/cobra"
)

var version = "0.4.0"

// themePath is the shipped theme inside the embedded filesystem.
const themePath = "theme/default.toml"

var (
	themeFS fs.FS

	configFile   string
	logLevel     string
	apiURL       string
	studentsFile string
	tutoringFile string
)

// SetThemeFS sets the embedded filesystem holding the shipped theme.
func SetThemeFS(fsys fs.FS) {
	themeFS = fsys
}

var rootCmd = &cobra.Command{
	Use:   "mentorgraph",
	Short: "mentorgraph: explore who mentored whom",
	Long: ui.Brand.Sprint(ui.Mortarboard+" mentorgraph") + " lays out a mentoring network as a force-directed graph\n" +
		ui.Subtle.Sprint("Render snapshots headlessly, or serve a live view driven over HTTP and websockets"),
	Version:      version + " " + ui.Mortarboard,
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("mentorgraph {{ .Version }}\n")
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: user config, then "+config.ProjectFile+")")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&apiURL, "api", "", "Mentoring API base URL")
	pf.StringVar(&studentsFile, "students", "", "Students file (JSON or YAML), instead of the API")
	pf.StringVar(&tutoringFile, "tutoring", "", "Tutoring file (JSON or YAML), instead of the API")

	rootCmd.AddCommand(
		renderCmd(),
		serveCmd(),
		yearsCmd(),
		activityCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if configFile != "" {
		c, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if apiURL != "" {
		cfg.Data.APIURL = apiURL
	}
	if studentsFile != "" {
		cfg.Data.StudentsFile = studentsFile
	}
	if tutoringFile != "" {
		cfg.Data.TutoringFile = tutoringFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	log := logging.New(cfg.Log, os.Stderr)
	slog.SetDefault(log)
	return log
}

// dataSource prefers local files when both are configured.
func dataSource(cfg *config.Config) dataset.Source {
	if cfg.Data.StudentsFile != "" && cfg.Data.TutoringFile != "" {
		return dataset.FileSource{StudentsPath: cfg.Data.StudentsFile, TutoringPath: cfg.Data.TutoringFile}
	}
	return dataset.NewAPIClient(cfg.Data.APIURL, cfg.Data.TimeoutDuration())
}

func loadDataset(ctx context.Context, cfg *config.Config, log *slog.Logger) (*dataset.Dataset, error) {
	src := dataSource(cfg)
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Debug("dataset loaded", "students", len(ds.Students), "links", len(ds.Tutoring))
	return ds, nil
}

func measurer(log *slog.Logger) scene.Measurer {
	m, err := scene.NewFontMeasurer()
	if err != nil {
		log.Warn("font measurer unavailable, estimating text sizes", "error", err)
		return scene.ApproxMeasurer{}
	}
	return m
}

// newView builds a view with the shipped theme, real font metrics and the
// log and journal notifiers, plus any extra notifiers.
func newView(l *loop.Loop, cfg *config.Config, log *slog.Logger, extra ...view.Notifier) (*view.View, error) {
	theme, err := scene.LoadTheme(themeFS, themePathIn(themeFS), config.ThemePath())
	if err != nil {
		return nil, err
	}
	opts := view.OptionsFromConfig(cfg)
	opts.Theme = theme
	opts.Measurer = measurer(log)
	notifiers := view.Notifiers{
		view.LogNotifier{Log: log},
		view.JournalNotifier{Journal: activity.Open(activity.DefaultPath()), Log: log},
	}
	opts.Notifier = append(notifiers, extra...)
	return view.New(l, opts), nil
}

func themePathIn(fsys fs.FS) string {
	if fsys == nil {
		return ""
	}
	return themePath
}
