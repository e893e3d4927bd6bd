package main

import (
	"github.com/spf13/cobra"

	"github.com/nonsonwune/tu_results/analyzer"
)

func newCaptureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capture [symbol-number]",
		Short: "Capture, OCR and display the result of one symbol number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var symbol string
			if len(args) == 1 {
				symbol = args[0]
			}
			return a.runCapture(cmd.Context(), symbol)
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	var start, end int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Capture every symbol number in a range into the results log",
		Long: "Capture every symbol number from --start to --end inclusive. The results\n" +
			"log is cleared first; the exam is chosen once and reused for the range.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var startFlag, endFlag *int
			if cmd.Flags().Changed("start") {
				startFlag = &start
			}
			if cmd.Flags().Changed("end") {
				endFlag = &end
			}
			return a.runBatch(cmd.Context(), startFlag, endFlag)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "first symbol number (prompted when omitted)")
	cmd.Flags().IntVar(&end, "end", 0, "last symbol number (prompted when omitted)")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [results-file]",
		Short: "Summarise a results log: pass rates, subject statistics, top students",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.file = args[0]
			}
			return a.runAnalyze(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory listed for file selection")
	cmd.Flags().StringVar(&opts.export, "export", "", "write the report to this file")
	cmd.Flags().StringVar(&opts.format, "format", analyzer.FormatJSON, "export format: json or yaml")
	cmd.Flags().BoolVar(&opts.fromDB, "from-db", false, "analyze imported records instead of a log file")
	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [ocr-text-file]",
		Short: "Extract and display a marksheet from raw OCR text (stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return a.runParse(file, cmd.InOrStdin())
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import [results-file]",
		Short: "Parse a results log and store the marksheets in the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return a.runImport(cmd.Context(), file, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
