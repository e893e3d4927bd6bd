package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/nonsonwune/tu_results/analyzer"
	"github.com/nonsonwune/tu_results/capture"
	"github.com/nonsonwune/tu_results/config"
	"github.com/nonsonwune/tu_results/extractor"
	"github.com/nonsonwune/tu_results/importer"
	"github.com/nonsonwune/tu_results/migrations"
	"github.com/nonsonwune/tu_results/models"
	"github.com/nonsonwune/tu_results/ocr"
	"github.com/nonsonwune/tu_results/portal"
	"github.com/nonsonwune/tu_results/resultlog"
	"github.com/nonsonwune/tu_results/ui"
)

// errNoStudentData is reported when a log yields no records.
var errNoStudentData = errors.New("no student data found in the file")

type app struct {
	cfg    config.Config
	log    zerolog.Logger
	prompt *ui.Prompter
	out    io.Writer
}

// examChooser asks the operator to pick an exam from the portal list.
type examChooser struct {
	prompt *ui.Prompter
}

func (c examChooser) ChooseExam(options []portal.ExamOption) (portal.ExamOption, error) {
	texts := make([]string, len(options))
	for i, o := range options {
		texts[i] = o.Text
	}
	idx, err := c.prompt.PromptChoice("Available Exams:", texts)
	if err != nil {
		return portal.ExamOption{}, err
	}
	return options[idx], nil
}

// spinningEngine shows a spinner while the wrapped engine works.
type spinningEngine struct {
	ocr.Engine
}

func (e spinningEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	s := ui.NewSpinner("Processing with OCR...")
	s.Start()
	defer s.Stop()
	return e.Engine.Recognize(ctx, image)
}

func (a *app) portalOptions() portal.Options {
	p := a.cfg.Portal
	return portal.Options{
		URL:            p.URL,
		ExamCategory:   p.ExamCategory,
		ProgramName:    p.ProgramName,
		Durations:      p.Durations,
		RenderDelay:    p.RenderDelay,
		PageTimeout:    p.PageTimeout,
		ElementTimeout: p.ElementTimeout,
		Headless:       p.Headless,
		Logger:         a.log,
	}
}

// newPipeline starts a browser session and wires it into a capture
// pipeline. The returned func closes the session.
func (a *app) newPipeline(ctx context.Context, sink capture.Sink, mutate func(*capture.Options)) (*capture.Pipeline, func(), error) {
	engine, err := ocr.New(a.cfg.OCR, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating OCR engine: %w", err)
	}

	if err := os.MkdirAll(a.cfg.Output.ScreenshotDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("error creating screenshot directory: %w", err)
	}

	session, err := portal.New(ctx, a.portalOptions())
	if err != nil {
		ocr.Close(engine)
		return nil, nil, err
	}
	closeAll := func() {
		session.Close()
		if err := ocr.Close(engine); err != nil {
			a.log.Warn().Err(err).Msg("error closing OCR engine")
		}
	}

	opts := capture.Options{
		Portal:           session,
		OCR:              engine,
		Sink:             sink,
		Chooser:          examChooser{prompt: a.prompt},
		ScreenshotDir:    a.cfg.Output.ScreenshotDir,
		ScreenshotPrefix: a.cfg.Output.ScreenshotPrefix,
		OnResult: func(r capture.Result) {
			displayMarksheet(a.out, r.Record)
		},
		Logger: a.log,
	}
	if mutate != nil {
		mutate(&opts)
	}
	pipeline, err := capture.New(opts)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return pipeline, closeAll, nil
}

func (a *app) runCapture(ctx context.Context, symbol string) error {
	if symbol == "" {
		var err error
		if symbol, err = a.prompt.PromptRequired("Enter your symbol number"); err != nil {
			return err
		}
	}

	w, err := resultlog.OpenAppend(a.cfg.Output.ResultsFile)
	if err != nil {
		return err
	}
	defer w.Close()

	pipeline, closeSession, err := a.newPipeline(ctx, w, func(o *capture.Options) {
		o.OCR = spinningEngine{Engine: o.OCR}
	})
	if err != nil {
		return err
	}
	defer closeSession()

	if _, err := pipeline.RunSingle(ctx, symbol); err != nil {
		return err
	}
	success.Fprintf(a.out, "Results for symbol number %s saved to %s\n", symbol, w.Path())
	return nil
}

// runBatch prompts for whichever bound is nil.
func (a *app) runBatch(ctx context.Context, startFlag, endFlag *int) error {
	start, err := a.boundOrPrompt(startFlag, "Enter the starting symbol number")
	if err != nil {
		return err
	}
	end, err := a.boundOrPrompt(endFlag, "Enter the ending symbol number")
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("starting symbol number %d is after ending symbol number %d", start, end)
	}

	w, err := resultlog.Create(a.cfg.Output.ResultsFile)
	if err != nil {
		return err
	}
	defer w.Close()
	a.log.Info().Str("file", w.Path()).Msg("existing results file has been cleared")

	bar := ui.NewProgressBar(os.Stderr, int64(end-start+1), "Capturing")
	pipeline, closeSession, err := a.newPipeline(ctx, w, func(o *capture.Options) {
		o.Progress = bar
	})
	if err != nil {
		return err
	}
	defer closeSession()

	sum, err := pipeline.RunBatch(ctx, start, end)
	fmt.Fprintf(a.out, "\nAttempted: %d  Captured: %d  Failed: %d\n", sum.Attempted, sum.Captured, sum.Failed)
	if err != nil {
		return err
	}
	success.Fprintf(a.out, "Results saved to %s\n", w.Path())
	return nil
}

// listTextFiles returns the .txt files in dir, sorted by name.
func listTextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// selectLogFile lets the operator pick a .txt file in dir. It returns ""
// when there is nothing to pick or the operator exits.
func (a *app) selectLogFile(dir string) (string, error) {
	files, err := listTextFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		fmt.Fprintf(a.out, "No .txt files found in %s.\n", dir)
		return "", nil
	}
	idx, err := a.prompt.PromptChoiceOrExit("Available text files:", files)
	if errors.Is(err, ui.ErrCancelled) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, files[idx]), nil
}

type analyzeOptions struct {
	file   string
	dir    string
	export string
	format string
	fromDB bool
}

func (a *app) runAnalyze(ctx context.Context, opts analyzeOptions) error {
	records, err := a.loadForAnalysis(ctx, opts)
	if err != nil || records == nil {
		return err
	}

	report := analyzer.Analyze(records)
	displayReport(a.out, report)

	if opts.export == "" {
		return nil
	}
	f, err := os.Create(opts.export)
	if err != nil {
		return fmt.Errorf("error creating export file: %w", err)
	}
	defer f.Close()
	if err := analyzer.WriteReport(f, report, opts.format); err != nil {
		return err
	}
	success.Fprintf(a.out, "Report exported to %s\n", opts.export)
	return nil
}

// loadForAnalysis returns nil records without error when the operator
// exits the file selection.
func (a *app) loadForAnalysis(ctx context.Context, opts analyzeOptions) ([]models.MarksheetRecord, error) {
	if opts.fromDB {
		db, err := a.openDB(ctx)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		records, err := importer.LoadRecords(ctx, db, a.cfg.DB.Driver)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, errors.New("no student data found in the database")
		}
		return records, nil
	}

	file := opts.file
	if file == "" {
		var err error
		if file, err = a.selectLogFile(opts.dir); err != nil || file == "" {
			return nil, err
		}
	}

	fmt.Fprintf(a.out, "\nAnalyzing file: %s\n", file)
	records := resultlog.ParseFile(file, a.log)
	if len(records) == 0 {
		return nil, errNoStudentData
	}
	return records, nil
}

func (a *app) boundOrPrompt(v *int, message string) (int, error) {
	if v != nil {
		return *v, nil
	}
	return a.prompt.PromptInt(message)
}

// promptParse asks for a file to parse. Standard input is already owned by
// the menu prompter, so "-" is refused here.
func (a *app) promptParse() error {
	for {
		file, err := a.prompt.PromptRequired("Enter the OCR text file path")
		if err != nil {
			return err
		}
		if file != "-" {
			return a.runParse(file, nil)
		}
		failure.Fprintln(a.out, "Reading from standard input is only available with the parse command.")
	}
}

func (a *app) runParse(file string, stdin io.Reader) error {
	var text string
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}
		text = string(data)
	} else {
		var err error
		if text, err = resultlog.ReadFile(file); err != nil {
			return err
		}
	}

	rec := extractor.Extract(text)
	if !rec.HasFields() && len(rec.Subjects) == 0 {
		return errors.New("no marksheet fields recognised")
	}
	displayMarksheet(a.out, rec)
	return nil
}

func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.cfg.DB.Driver, a.cfg.DB.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := migrations.InitSchema(db, a.cfg.DB.Driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *app) runImport(ctx context.Context, file string, assumeYes bool) error {
	if file == "" {
		file = a.cfg.Output.ResultsFile
	}
	records := resultlog.ParseFile(file, a.log)
	if len(records) == 0 {
		return errNoStudentData
	}

	fmt.Fprintf(a.out, "\nReady to import %d records from %s into %s\n", len(records), file, a.cfg.DB.Driver)
	if !assumeYes {
		ok, err := a.prompt.Confirm("Proceed with import?", false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Import cancelled.")
			return nil
		}
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	imp, err := importer.New(db, importer.Config{
		Driver:    a.cfg.DB.Driver,
		BatchSize: a.cfg.DB.BatchSize,
	}, a.log)
	if err != nil {
		return err
	}
	stats, err := imp.Import(ctx, records)
	displayImportStats(a.out, stats)
	if err != nil {
		return fmt.Errorf("error importing data: %w", err)
	}
	success.Fprintln(a.out, "Import completed successfully!")
	return nil
}
