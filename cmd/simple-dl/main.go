package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"simple-dl/internal/config"
	"simple-dl/internal/downloader"
	"simple-dl/internal/logger"
	"simple-dl/internal/ui"
)

var (
	output     string
	dir        string
	configPath string
	useDoH     bool
	rateLimit  int64
	logLevel   string
	plain      bool
)

// exitError carries the process exit code for a finished transfer
type exitError struct {
	code    int
	outcome downloader.Outcome
}

func (e *exitError) Error() string {
	return "download " + e.outcome.String()
}

var rootCmd = &cobra.Command{
	Use:           "simple-dl [url]",
	Short:         "Download a single file over HTTP with pause, resume and cancel",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		// Log lines on stderr would tear through the interactive view.
		if !plain && cfg.Logging.Output == "stderr" && !cmd.Flags().Changed("log-level") {
			level = "error"
		}
		if err := logger.Init(level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
			return err
		}
		defer logger.Sync()

		return runDownload(cmd.Context(), cfg, args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (used as is)")
	rootCmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory for derived filenames")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().BoolVar(&useDoH, "doh", false, "Resolve hosts through DNS over HTTPS")
	rootCmd.Flags().Int64Var(&rateLimit, "rate-limit", 0, "Bandwidth limit in bytes per second (0 = unlimited)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "Print progress lines instead of the interactive view")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.Error())
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Download.Dir = dir
	}
	if flags.Changed("doh") {
		cfg.Network.UseDoH = useDoH
	}
	if flags.Changed("rate-limit") {
		cfg.Download.RateLimit = rateLimit
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runDownload(ctx context.Context, cfg *config.Config, url string) error {
	engine := downloader.NewEngine(cfg.DownloaderConfig(), downloader.WithLogger(logger.Log))
	req := downloader.Request{URL: url, SavePath: output}

	var outcome downloader.Outcome
	if plain {
		printer := ui.NewPlain(os.Stdout, cfg.Download.GetSampleInterval())
		t, err := engine.Start(ctx, req, printer.Sink)
		if err != nil {
			return err
		}
		if t.Path() != "" {
			fmt.Printf("Saving to %s\n", t.Path())
		}
		<-t.Done()
		outcome = stateOutcome(t.State())
	} else {
		model := ui.NewModel(engine, url, output)
		p := tea.NewProgram(model)

		t, err := engine.Start(ctx, req, ui.Forward(p))
		if err != nil {
			return err
		}
		go p.Send(ui.PathMsg(t.Path()))

		final, err := p.Run()
		if err != nil {
			engine.Cancel()
			<-t.Done()
			return fmt.Errorf("ui: %w", err)
		}

		// The view may exit on q before the terminal outcome arrives.
		<-t.Done()
		outcome = stateOutcome(t.State())
		if m, ok := final.(ui.Model); ok && m.Outcome().Terminal() {
			outcome = m.Outcome()
		}
		fmt.Printf("%s -> %s\n", outcome, t.Path())
	}

	switch outcome {
	case downloader.OutcomeCompleted:
		return nil
	case downloader.OutcomeCancelled:
		return &exitError{code: 130, outcome: outcome}
	default:
		return &exitError{code: 1, outcome: outcome}
	}
}

func stateOutcome(s downloader.State) downloader.Outcome {
	switch s {
	case downloader.StateCompleted:
		return downloader.OutcomeCompleted
	case downloader.StateCancelled:
		return downloader.OutcomeCancelled
	default:
		return downloader.OutcomeFailed
	}
}
