package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nonsonwune/tu_results/config"
	"github.com/nonsonwune/tu_results/observability"
	"github.com/nonsonwune/tu_results/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{out: os.Stdout, prompt: ui.Stdio()}
	var logLevel string

	root := &cobra.Command{
		Use:           "tu-results",
		Short:         "Capture, parse and analyze TU exam results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				// Malformed values already fell back to defaults.
				color.Yellow("Warning: %v", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			a.cfg = cfg
			a.log = observability.NewLogger(observability.LogConfig{
				Level:   cfg.LogLevel,
				Format:  cfg.LogFormat,
				Service: "tu-results",
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMenu(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newCaptureCmd(a),
		newBatchCmd(a),
		newAnalyzeCmd(a),
		newParseCmd(a),
		newImportCmd(a),
	)
	return root
}

func displayMenu() {
	color.Cyan("\n=== TU Exam Results Toolkit ===")
	fmt.Println("1. Capture Single Result")
	fmt.Println("2. Batch Capture Results")
	fmt.Println("3. Analyze Results Log")
	fmt.Println("4. Parse OCR Text File")
	fmt.Println("5. Import Results Log into Database")
	fmt.Println("6. Exit")
}

func (a *app) runMenu(ctx context.Context) error {
	for {
		displayMenu()
		choice, err := a.prompt.Prompt("\nEnter your choice (1-6)")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = a.runCapture(ctx, "")
		case "2":
			err = a.runBatch(ctx, nil, nil)
		case "3":
			err = a.runAnalyze(ctx, analyzeOptions{dir: "."})
		case "4":
			err = a.promptParse()
		case "5":
			err = a.runImport(ctx, "", false)
		case "6":
			color.Green("Thank you for using the TU Exam Results Toolkit!")
			return nil
		default:
			color.Red("Invalid choice. Please try again.")
			continue
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			color.Red("Error: %v", err)
		}
	}
}
