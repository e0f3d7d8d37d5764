package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/livecap/internal/config"
	"github.com/verte-zerg/livecap/internal/logging"
	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/platform"
	"github.com/verte-zerg/livecap/internal/store"
	"github.com/verte-zerg/livecap/internal/transcript"
)

func newTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Capture captions headlessly and print them to stdout",
		Args:  cobra.NoArgs,
		RunE:  runTailCmd,
	}
	cmd.Flags().BoolVar(&tailTerminate, "terminate", false, "close Live Captions on exit")
	return cmd
}

func runTailCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.New(logging.Options{Level: logLevel, Format: logFormat, Path: logFile})
	if err != nil {
		return err
	}
	defer closeQuietly(logCloser, "log file")

	release, err := acquireInstanceLock()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	out := cmd.OutOrStdout()
	printer := transcript.NewPrinter(out, cmd.ErrOrStderr(), transcript.TerminalWidth(), transcript.IsInteractive(out))
	eng.ctrl.Subscribe(printer)

	go eng.watchConfig(ctx, config.DefaultConfigPath(), cfg.pinned)

	if err := eng.ctrl.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	eng.ctrl.Stop(func() bool { return tailTerminate })
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 20, "limit to last N sessions (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := transcript.BuildReport(cmd.Context(), st, historyLast)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	return transcript.WriteHistory(out, report, transcript.IsInteractive(out))
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a recorded transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	session, err := st.FindSession(ctx, args[0])
	if err != nil {
		return err
	}
	captions, err := st.ListCaptions(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to load captions: %w", err)
	}
	out := cmd.OutOrStdout()
	return transcript.WriteTranscript(out, session, captions, transcript.TerminalWidth(), transcript.IsInteractive(out))
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List caption languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	for _, lang := range model.Languages() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", lang.Tag, lang.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check Live Captions discovery",
		Args:  cobra.NoArgs,
		RunE:  runDoctorCmd,
	}
}

func runDoctorCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	eng := newEngine(cfg, logging.NewNop())
	defer eng.Close()

	out := cmd.OutOrStdout()
	check := func(name string, ok bool, detail string) {
		mark := "ok  "
		if !ok {
			mark = "FAIL"
		}
		if _, err := fmt.Fprintf(out, "[%s] %-22s %s\n", mark, name, detail); err != nil {
			// Best-effort output.
			_ = err
		}
	}

	check("platform", platform.Supported(), platformDetail())
	path, found := eng.sup.ResolveExecutable()
	if !found {
		path = "not found"
	}
	check("executable", found, path)
	check("process running", eng.sup.IsTargetRunning(), "")
	ref, ok := eng.locator.Find()
	check("captions window", ok, ref.String())
	if ok {
		text, err := eng.extract.Extract(ref)
		detail := fmt.Sprintf("%q via %v", text, eng.extract.Strategies())
		if err != nil {
			detail = err.Error()
		}
		check("caption text", err == nil, detail)
	}
	check("accessibility", eng.access != nil, "UI Automation")
	check("config", true, config.DefaultConfigPath())
	check("database", true, config.DefaultDBPath())
	return nil
}

func platformDetail() string {
	if platform.Supported() {
		return "windows"
	}
	return "unsupported OS, capture requires Windows"
}

