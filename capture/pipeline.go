// Package capture runs the lookup pipeline: portal page, screenshot, OCR,
// result log and marksheet extraction.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nonsonwune/tu_results/extractor"
	"github.com/nonsonwune/tu_results/models"
	"github.com/nonsonwune/tu_results/ocr"
	"github.com/nonsonwune/tu_results/portal"
)

// Portal is the browser session the pipeline drives.
type Portal interface {
	Open(ctx context.Context) error
	ExamOptions(ctx context.Context) ([]portal.ExamOption, error)
	Lookup(ctx context.Context, exam portal.ExamOption, symbol string) ([]byte, error)
}

// Chooser picks the exam to look results up under.
type Chooser interface {
	ChooseExam(options []portal.ExamOption) (portal.ExamOption, error)
}

// Sink receives the raw OCR text of every captured symbol.
type Sink interface {
	Append(symbol, text string) error
}

// Progress is advanced once per symbol of a batch.
type Progress interface {
	Add()
	Finish()
}

// Result is one captured symbol number.
type Result struct {
	Symbol     string
	Screenshot string
	Text       string
	Record     models.MarksheetRecord
}

// Summary counts the outcome of a batch run.
type Summary struct {
	Attempted int
	Captured  int
	Failed    int
}

// Options wires a Pipeline.
type Options struct {
	Portal           Portal
	OCR              ocr.Engine
	Sink             Sink
	Chooser          Chooser
	ScreenshotDir    string
	ScreenshotPrefix string
	// OnResult is called for every symbol that produced text.
	OnResult func(Result)
	Progress Progress
	Logger   zerolog.Logger
}

// Pipeline captures result pages one symbol at a time.
type Pipeline struct {
	opts Options
	log  zerolog.Logger
}

// New creates a pipeline. Portal, OCR, Sink and Chooser are required.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Portal == nil:
		return nil, errors.New("capture: portal is required")
	case opts.OCR == nil:
		return nil, errors.New("capture: OCR engine is required")
	case opts.Sink == nil:
		return nil, errors.New("capture: sink is required")
	case opts.Chooser == nil:
		return nil, errors.New("capture: exam chooser is required")
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = "."
	}
	if opts.ScreenshotPrefix == "" {
		opts.ScreenshotPrefix = "result"
	}
	return &Pipeline{opts: opts, log: opts.Logger}, nil
}

// ScreenshotPath returns where the screenshot of symbol is written.
func (p *Pipeline) ScreenshotPath(symbol string) string {
	return filepath.Join(p.opts.ScreenshotDir, fmt.Sprintf("%s_%s.png", p.opts.ScreenshotPrefix, symbol))
}

// RunSingle captures one symbol number, asking for the exam first.
func (p *Pipeline) RunSingle(ctx context.Context, symbol string) (Result, error) {
	log := p.log.With().Str("run_id", uuid.NewString()).Logger()

	var exam *portal.ExamOption
	res, err := p.captureOne(ctx, log, &exam, symbol)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("capture failed")
		return Result{}, err
	}
	return res, nil
}

// RunBatch captures every symbol number in [start, end]. The exam is chosen
// on the first symbol whose page loads and reused for the rest. A failed
// symbol is logged and counted; the run continues with the next one. The
// run stops early only when ctx is done, no exam is offered or the chooser
// fails.
func (p *Pipeline) RunBatch(ctx context.Context, start, end int) (Summary, error) {
	var sum Summary
	if start > end {
		return sum, fmt.Errorf("capture: start %d is after end %d", start, end)
	}

	log := p.log.With().Str("run_id", uuid.NewString()).Logger()
	log.Info().Int("start", start).Int("end", end).Msg("starting batch capture")
	if p.opts.Progress != nil {
		defer p.opts.Progress.Finish()
	}

	var exam *portal.ExamOption
	for n := start; n <= end; n++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		symbol := strconv.Itoa(n)
		sum.Attempted++
		_, err := p.captureOne(ctx, log, &exam, symbol)
		if p.opts.Progress != nil {
			p.opts.Progress.Add()
		}
		if err == nil {
			sum.Captured++
			continue
		}

		sum.Failed++
		log.Error().Err(err).Str("symbol", symbol).Msg("capture failed")
		if errors.Is(err, portal.ErrNoExams) || errors.Is(err, errChooser) || ctx.Err() != nil {
			return sum, err
		}
	}

	log.Info().
		Int("attempted", sum.Attempted).
		Int("captured", sum.Captured).
		Int("failed", sum.Failed).
		Msg("batch capture finished")
	return sum, nil
}

var errChooser = errors.New("exam selection")

// captureOne runs the pipeline for symbol. When *exam is nil the exam is
// chosen from the page and stored there.
func (p *Pipeline) captureOne(ctx context.Context, log zerolog.Logger, exam **portal.ExamOption, symbol string) (Result, error) {
	log = log.With().Str("symbol", symbol).Logger()
	log.Info().Msg("processing symbol number")

	if err := p.opts.Portal.Open(ctx); err != nil {
		return Result{}, err
	}

	if *exam == nil {
		options, err := p.opts.Portal.ExamOptions(ctx)
		if err != nil {
			return Result{}, err
		}
		chosen, err := p.opts.Chooser.ChooseExam(options)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", errChooser, err)
		}
		log.Info().Str("exam", chosen.Text).Msg("selected exam")
		*exam = &chosen
	}

	png, err := p.opts.Portal.Lookup(ctx, **exam, symbol)
	if err != nil {
		return Result{}, err
	}

	res := Result{Symbol: symbol}
	path := p.ScreenshotPath(symbol)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not save screenshot")
	} else {
		res.Screenshot = path
		log.Info().Str("path", path).Msg("screenshot saved")
	}

	log.Info().Str("engine", p.opts.OCR.Name()).Msg("processing with OCR")
	text, err := p.opts.OCR.Recognize(ctx, png)
	if err != nil {
		return Result{}, fmt.Errorf("ocr: %w", err)
	}
	res.Text = text

	if err := p.opts.Sink.Append(symbol, text); err != nil {
		return Result{}, fmt.Errorf("write result log: %w", err)
	}
	log.Info().Msg("results saved")

	res.Record = extractor.ExtractFor(symbol, text)
	if p.opts.OnResult != nil {
		p.opts.OnResult(res)
	}
	return res, nil
}
