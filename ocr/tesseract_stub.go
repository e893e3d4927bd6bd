//go:build !tesseract

package ocr

import "fmt"

// NewTesseractEngine reports that this binary was built without Tesseract
// support. Build with -tags tesseract to enable it.
func NewTesseractEngine(languages ...string) (Engine, error) {
	return nil, fmt.Errorf("%w: built without the tesseract tag", ErrEngineUnavailable)
}
