// Package main provides the CLI entrypoint for livecap.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/livecap/internal/config"
	"github.com/verte-zerg/livecap/internal/logging"
	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/store"
	"github.com/verte-zerg/livecap/internal/tui"
)

const (
	defaultLang       = "en-US"
	defaultPosition   = "top-left"
	defaultOpacity    = 80
	defaultIntervalMS = 500
	defaultGraceMS    = 2000
	defaultLogLevel   = "info"
	defaultLogFormat  = "auto"
)

var (
	captureLang       string
	capturePosition   string
	captureOpacity    int
	captureIntervalMS int
	captureGraceMS    int
	captureRecord     bool

	logLevel  string
	logFormat string
	logFile   string

	tailTerminate bool
	historyLast   int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "livecap",
		Short:         "Capture Windows Live Captions into a terminal transcript",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runViewerCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&captureLang, "lang", defaultLang, "caption language tag or name")
	flags.StringVar(&capturePosition, "position", defaultPosition, "captions window position")
	flags.IntVar(&captureOpacity, "opacity", defaultOpacity, "captions window opacity (0-100)")
	flags.IntVar(&captureIntervalMS, "interval-ms", defaultIntervalMS, "polling interval in milliseconds")
	flags.IntVar(&captureGraceMS, "grace-ms", defaultGraceMS, "wait after launching Live Captions before polling")
	flags.BoolVar(&captureRecord, "record", true, "record transcripts to the database")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", defaultLogFormat, "log format (auto, text, json)")
	flags.StringVar(&logFile, "log-file", "", "log file (default: data dir for the viewer, stderr otherwise)")

	rootCmd.AddCommand(newTailCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())

	return rootCmd
}

// settings is the merged result of flags and the config file.
type settings struct {
	capture model.Config
	target  config.TargetConfig
	pinned  map[string]bool // flags set on the command line; reloads skip them
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lang", &captureLang, fileCfg.Capture.Lang)
	applyStringConfig(cmd, "position", &capturePosition, fileCfg.Capture.Position)
	applyIntConfig(cmd, "opacity", &captureOpacity, fileCfg.Capture.Opacity)
	applyIntConfig(cmd, "interval-ms", &captureIntervalMS, fileCfg.Capture.IntervalMS)
	applyIntConfig(cmd, "grace-ms", &captureGraceMS, fileCfg.Capture.GraceMS)
	applyBoolConfig(cmd, "record", &captureRecord, fileCfg.Capture.Record)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	capture, err := buildCaptureConfig()
	if err != nil {
		return settings{}, err
	}
	pinned := make(map[string]bool)
	for _, name := range []string{"position", "opacity"} {
		if cmd.Flags().Changed(name) {
			pinned[name] = true
		}
	}
	return settings{capture: capture, target: fileCfg.Target, pinned: pinned}, nil
}

func buildCaptureConfig() (model.Config, error) {
	lang, ok := model.LookupLanguage(captureLang)
	if !ok {
		return model.Config{}, fmt.Errorf("unknown language %q (run: livecap langs)", captureLang)
	}
	pos, err := model.ParsePosition(capturePosition)
	if err != nil {
		return model.Config{}, fmt.Errorf("--position: %w", err)
	}
	opacity := model.Opacity(captureOpacity)
	if err := opacity.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("--opacity: %w", err)
	}
	if captureIntervalMS <= 0 {
		return model.Config{}, fmt.Errorf("--interval-ms must be > 0")
	}
	if captureGraceMS < 0 {
		return model.Config{}, fmt.Errorf("--grace-ms must be >= 0")
	}
	return model.Config{
		Lang:         lang.Tag,
		Position:     pos,
		Opacity:      opacity,
		PollInterval: time.Duration(captureIntervalMS) * time.Millisecond,
		LaunchGrace:  time.Duration(captureGraceMS) * time.Millisecond,
		Record:       captureRecord,
	}, nil
}

func runViewerCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	path := logFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	logger, logCloser, err := logging.New(logging.Options{Level: logLevel, Format: logFormat, Path: path})
	if err != nil {
		return err
	}
	defer closeQuietly(logCloser, "log file")

	release, err := acquireInstanceLock()
	if err != nil {
		return err
	}
	defer release()

	eng := newEngine(cfg, logger)
	defer eng.Close()

	if cfg.capture.Record {
		rec, closeRec, err := openRecorder(logger)
		if err != nil {
			return err
		}
		defer closeRec()
		eng.ctrl.Subscribe(rec)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go eng.watchConfig(ctx, config.DefaultConfigPath(), cfg.pinned)

	view := tui.NewModel(eng.ctrl)
	program := tea.NewProgram(view, tea.WithAltScreen())
	unsubscribe := eng.ctrl.Subscribe(tui.NewSink(program.Send))
	defer unsubscribe()
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func openRecorder(logger *slog.Logger) (*store.Recorder, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	rec := store.NewRecorder(st, logger)
	return rec, func() {
		rec.Close()
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = defaultEditor()
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultEditor() string {
	if filepath.Separator == '\\' {
		return "notepad"
	}
	return "vi"
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# livecap configuration
# Uncomment a value to enable it. CLI flags override config values.
# Position and opacity changes are picked up by a running viewer.

[capture]
# lang = %q           # Caption language tag (see: livecap langs)
# position = %q     # top-left, top-right, bottom-left, bottom-right, center-top, center-bottom
# opacity = %d              # Captions window opacity (0-100)
# interval-ms = %d         # Polling interval
# grace-ms = %d           # Wait after launching Live Captions
# record = true             # Record transcripts

[target]
# titles = ["Live Captions", "Live captions"]
# host-classes = ["LiveCaptionsDesktopWindow", "ApplicationFrameWindow"]
# title-hint = "caption"
# process = "LiveCaptions"
# paths = ['C:\Windows\System32\LiveCaptions.exe']
# launch-uri = ""

[log]
# level = %q
# format = %q             # auto, text, json
# file = ""
`,
		defaultLang,
		defaultPosition,
		defaultOpacity,
		defaultIntervalMS,
		defaultGraceMS,
		defaultLogLevel,
		defaultLogFormat,
	)
}

func closeQuietly(c io.Closer, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		logErrf("failed to close %s: %v\n", what, err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
