// Package ocr turns result-page screenshots into text.
//
// Three engines are available: the OCR.space HTTP API, Gemini vision
// models, and a local Tesseract install (built with the "tesseract" tag).
package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nonsonwune/tu_results/config"
)

// Engine names accepted by New.
const (
	EngineSpace     = "ocrspace"
	EngineGemini    = "gemini"
	EngineTesseract = "tesseract"
)

var (
	// ErrNoText is returned when an engine answered but recognised nothing.
	ErrNoText = errors.New("ocr: no text recognised")
	// ErrEngineUnavailable is returned when an engine cannot run in this
	// build or environment.
	ErrEngineUnavailable = errors.New("ocr: engine unavailable")
)

// Engine recognises the text in a PNG image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// APIError reports a failed call to a remote OCR service.
type APIError struct {
	Engine  string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: request failed with status %d: %s", e.Engine, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Engine, e.Message)
}

// New builds the engine selected by cfg.Engine.
func New(cfg config.OCRConfig, log zerolog.Logger) (Engine, error) {
	switch cfg.Engine {
	case EngineSpace, "":
		return NewSpaceClient(SpaceOptions{
			URL:           cfg.SpaceURL,
			APIKey:        cfg.SpaceAPIKey,
			Language:      cfg.Language,
			EngineVersion: cfg.SpaceEngine,
			TableMode:     cfg.TableMode,
			Timeout:       cfg.Timeout,
		}), nil
	case EngineGemini:
		if len(cfg.GeminiKeys) == 0 {
			return nil, fmt.Errorf("%w: no Gemini API keys configured", ErrEngineUnavailable)
		}
		return NewGeminiEngine(GeminiOptions{
			Keys:   NewKeyManager(cfg.GeminiKeys, time.Minute),
			Model:  cfg.GeminiModel,
			Logger: log,
		}), nil
	case EngineTesseract:
		return NewTesseractEngine(cfg.TesseractLangs...)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}

// Close releases engine resources when the engine holds any.
func Close(e Engine) error {
	if c, ok := e.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
