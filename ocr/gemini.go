package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when GeminiOptions.Model is empty.
const DefaultGeminiModel = "gemini-1.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// modelOpener returns a generator bound to key plus a func releasing it.
type modelOpener func(ctx context.Context, key, model string) (contentGenerator, func() error, error)

// GeminiOptions configures a GeminiEngine.
type GeminiOptions struct {
	Keys    *KeyManager
	Model   string
	Backoff []time.Duration
	Logger  zerolog.Logger
}

// GeminiEngine transcribes screenshots with a Gemini vision model, rotating
// API keys between attempts.
type GeminiEngine struct {
	keys    *KeyManager
	model   string
	backoff []time.Duration
	log     zerolog.Logger
	open    modelOpener
}

// NewGeminiEngine creates a Gemini engine.
func NewGeminiEngine(opts GeminiOptions) *GeminiEngine {
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if len(opts.Backoff) == 0 {
		opts.Backoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}
	return &GeminiEngine{
		keys:    opts.Keys,
		model:   opts.Model,
		backoff: opts.Backoff,
		log:     opts.Logger,
		open:    openGeminiModel,
	}
}

func (e *GeminiEngine) Name() string { return EngineGemini }

// Recognize sends image with the transcription prompt. Failed attempts are
// retried with backoff; rate-limited keys are put on cooldown.
func (e *GeminiEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if e.keys == nil || e.keys.Len() == 0 {
		return "", fmt.Errorf("%w: no Gemini API keys", ErrEngineUnavailable)
	}

	var lastErr error
	for i, wait := range e.backoff {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		key := e.keys.Next()
		text, err := e.recognizeWithKey(ctx, key, image)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrNoText) {
			return "", err
		}
		lastErr = err
		if isRateLimitError(err) {
			e.keys.MarkFailed(key)
		}
		e.log.Warn().Err(err).Int("attempt", i+1).Msg("gemini transcription failed")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("all attempts failed, last error: %w", lastErr)
}

func (e *GeminiEngine) recognizeWithKey(ctx context.Context, key string, image []byte) (string, error) {
	model, release, err := e.open(ctx, key, e.model)
	if err != nil {
		return "", err
	}
	defer release()

	resp, err := model.GenerateContent(ctx, genai.ImageData("png", image), genai.Text(BuildTranscriptionPrompt()))
	if err != nil {
		return "", &APIError{Engine: EngineGemini, Message: err.Error()}
	}
	return extractResponseText(resp)
}

func openGeminiModel(ctx context.Context, key, name string) (contentGenerator, func() error, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing Gemini client: %w", err)
	}
	model := client.GenerativeModel(name)
	temp := float32(0)
	model.Temperature = &temp
	return model, client.Close, nil
}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "resource has been exhausted") ||
		strings.Contains(msg, "429")
}

// extractResponseText joins the text parts of the first candidate and strips
// a surrounding code fence if the model added one.
func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoText
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	text := strings.TrimSpace(b.String())
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
