// Package portal drives the university result lookup site with a headless
// Chrome session.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ErrNoExams is returned when the exam dropdown has no option in the
// configured category.
var ErrNoExams = errors.New("portal: no exams found in category")

// DefaultUserAgent is sent instead of the HeadlessChrome agent string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Page locators.
const (
	programLabel   = "Program"
	durationLabel  = "Program Duration"
	symbolInput    = `//input[contains(@placeholder, 'Symbol Number')]`
	searchButton   = `//button[contains(text(), 'Search')]`
	settleDelay    = 2 * time.Second
	selectionDelay = 1 * time.Second
)

// ExamOption is one entry of the exam dropdown.
type ExamOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Options configures a Session.
type Options struct {
	URL            string
	ExamCategory   string
	ProgramName    string
	Durations      []string
	RenderDelay    time.Duration
	PageTimeout    time.Duration
	ElementTimeout time.Duration
	Headless       bool
	UserAgent      string
	Logger         zerolog.Logger
}

func (o *Options) setDefaults() {
	if o.RenderDelay == 0 {
		o.RenderDelay = 5 * time.Second
	}
	if o.PageTimeout == 0 {
		o.PageTimeout = 20 * time.Second
	}
	if o.ElementTimeout == 0 {
		o.ElementTimeout = 15 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
}

// Session is one browser tab on the result portal. It is not safe for
// concurrent use.
type Session struct {
	opts          Options
	log           zerolog.Logger
	browser       context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// New starts Chrome and opens an empty tab. The browser lives until Close.
func New(ctx context.Context, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.setDefaults()
	log := opts.Logger.With().Str("component", "portal").Logger()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(opts.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browser, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
	)

	s := &Session{
		opts:          opts,
		log:           log,
		browser:       browser,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}
	// The first Run allocates the browser; it must not carry a deadline or
	// the browser would die with it.
	if err := chromedp.Run(browser); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

// Close shuts the tab and the browser process.
func (s *Session) Close() {
	s.cancelBrowser()
	s.cancelAlloc()
	s.log.Info().Msg("browser closed")
}

// Open loads the lookup form and waits for it to render.
func (s *Session) Open(ctx context.Context) error {
	s.log.Info().Str("url", s.opts.URL).Msg("loading results page")
	err := s.run(ctx, s.opts.PageTimeout,
		chromedp.Navigate(s.opts.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
	)
	if err != nil {
		return fmt.Errorf("load results page: %w", err)
	}
	return nil
}

// ExamOptions lists the exam dropdown entries whose text contains the
// configured category. It returns ErrNoExams when none match.
func (s *Session) ExamOptions(ctx context.Context) ([]ExamOption, error) {
	var all []ExamOption
	err := s.run(ctx, s.opts.ElementTimeout,
		chromedp.WaitReady("select", chromedp.ByQuery),
		chromedp.Evaluate(listExamsScript, &all),
	)
	if err != nil {
		return nil, fmt.Errorf("read exam options: %w", err)
	}

	exams := FilterExams(all, s.opts.ExamCategory)
	if len(exams) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoExams, s.opts.ExamCategory)
	}
	return exams, nil
}

// Lookup fills the form for symbol under exam, submits it and returns a PNG
// of the rendered result. The page must have been opened first.
func (s *Session) Lookup(ctx context.Context, exam ExamOption, symbol string) ([]byte, error) {
	log := s.log.With().Str("symbol", symbol).Logger()

	var selected bool
	if err := s.run(ctx, s.opts.ElementTimeout,
		chromedp.WaitReady("select", chromedp.ByQuery),
		chromedp.Evaluate(selectExamScript(exam.Value), &selected),
	); err != nil {
		return nil, fmt.Errorf("select exam: %w", err)
	}
	if !selected {
		return nil, fmt.Errorf("select exam: option %q not present", exam.Text)
	}
	log.Debug().Str("exam", exam.Text).Msg("selected exam")

	program, err := s.selectByLabel(ctx, programLabel, []string{s.opts.ProgramName}, false)
	if err != nil {
		return nil, fmt.Errorf("select program: %w", err)
	}
	if program == "" {
		log.Warn().Str("program", s.opts.ProgramName).Msg("program option not found")
	}

	duration, err := s.selectByLabel(ctx, durationLabel, s.opts.Durations, true)
	if err != nil {
		return nil, fmt.Errorf("select duration: %w", err)
	}
	if duration == "" {
		log.Warn().Strs("durations", s.opts.Durations).Msg("duration option not found")
	}

	if err := s.run(ctx, s.opts.ElementTimeout,
		chromedp.WaitReady(symbolInput, chromedp.BySearch),
		chromedp.Clear(symbolInput, chromedp.BySearch),
		chromedp.SendKeys(symbolInput, symbol, chromedp.BySearch),
		chromedp.WaitVisible(searchButton, chromedp.BySearch),
		chromedp.Click(searchButton, chromedp.BySearch),
	); err != nil {
		return nil, fmt.Errorf("submit symbol number: %w", err)
	}

	var png []byte
	if err := s.run(ctx, s.opts.RenderDelay+s.opts.ElementTimeout,
		chromedp.Sleep(s.opts.RenderDelay),
		chromedp.CaptureScreenshot(&png),
	); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	log.Info().Int("bytes", len(png)).Msg("captured result page")
	return png, nil
}

func (s *Session) selectByLabel(ctx context.Context, label string, wanted []string, exact bool) (string, error) {
	var chosen string
	err := s.run(ctx, s.opts.ElementTimeout,
		chromedp.WaitReady(labelXPath(label), chromedp.BySearch),
		chromedp.Sleep(selectionDelay),
		chromedp.Evaluate(selectByLabelScript(label, wanted, exact), &chosen),
	)
	return chosen, err
}

// run executes actions in the browser tab, bounded by timeout and by ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.browser, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// FilterExams keeps the options whose text contains category.
func FilterExams(options []ExamOption, category string) []ExamOption {
	var out []ExamOption
	for _, o := range options {
		if strings.Contains(o.Text, category) {
			out = append(out, o)
		}
	}
	return out
}
