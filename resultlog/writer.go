// Package resultlog reads and writes the shared OCR results log: a sequence
// of blocks, each introduced by a symbol-number banner and holding the raw
// OCR text for that symbol.
package resultlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// BannerWidth is the number of '=' characters framing a block header.
const BannerWidth = 40

// ErrWriterClosed is returned by Append after Close.
var ErrWriterClosed = errors.New("resultlog: writer closed")

// Writer appends result blocks to a log file. Each Append is flushed and
// synced before returning so a crash mid-run keeps every completed block.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	buf    *bufio.Writer
	closed bool
}

// Create opens path for writing, discarding any previous content.
func Create(path string) (*Writer, error) {
	return open(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

// OpenAppend opens path for appending, creating it if needed.
func OpenAppend(path string) (*Writer, error) {
	return open(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

func open(path string, flag int) (*Writer, error) {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results log %s: %w", path, err)
	}
	return &Writer{path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string { return w.path }

// Append writes one block for symbol. Empty text is ignored.
func (w *Writer) Append(symbol, text string) error {
	if text == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}

	w.buf.WriteString(FormatBlock(symbol, text))
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("write block for %s: %w", symbol, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync results log: %w", err)
	}
	return nil
}

// Close flushes and closes the file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	return errors.Join(flushErr, closeErr)
}

// FormatBlock renders a block exactly as it appears in the log.
func FormatBlock(symbol, text string) string {
	banner := strings.Repeat("=", BannerWidth)
	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString("Results for Symbol Number: " + symbol + "\n")
	b.WriteString(banner + "\n")
	b.WriteString(text + "\n\n")
	return b.String()
}
