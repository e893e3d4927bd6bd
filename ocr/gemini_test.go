package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func testGemini(keys []string, open modelOpener) *GeminiEngine {
	e := NewGeminiEngine(GeminiOptions{
		Keys:    NewKeyManager(keys, time.Minute),
		Backoff: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
		Logger:  zerolog.Nop(),
	})
	e.open = open
	return e
}

func TestGeminiRecognizeSendsImageAndPrompt(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("NAME: SITA\n", "Result: P")}
	var usedKey, usedModel string
	e := testGemini([]string{"k1"}, func(_ context.Context, key, model string) (contentGenerator, func() error, error) {
		usedKey, usedModel = key, model
		return gen, func() error { return nil }, nil
	})

	text, err := e.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "NAME: SITA\nResult: P", text)
	assert.Equal(t, "k1", usedKey)
	assert.Equal(t, DefaultGeminiModel, usedModel)

	require.Len(t, gen.parts, 2)
	blob, ok := gen.parts[0].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, []byte("img"), blob.Data)
	assert.Equal(t, genai.Text(BuildTranscriptionPrompt()), gen.parts[1])
}

func TestGeminiRetriesAndRotatesOnRateLimit(t *testing.T) {
	var keys []string
	e := testGemini([]string{"k1", "k2"}, func(_ context.Context, key, _ string) (contentGenerator, func() error, error) {
		keys = append(keys, key)
		if key == "k1" {
			return &fakeGenerator{err: errors.New("googleapi: Error 429: quota exceeded")}, func() error { return nil }, nil
		}
		return &fakeGenerator{resp: textResponse("ok")}, func() error { return nil }, nil
	})

	text, err := e.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"k1", "k2"}, keys)
	assert.Equal(t, "k2", e.keys.Next(), "k1 is cooling down")
}

func TestGeminiGivesUpAfterBackoff(t *testing.T) {
	calls := 0
	e := testGemini([]string{"k1"}, func(context.Context, string, string) (contentGenerator, func() error, error) {
		calls++
		return &fakeGenerator{err: errors.New("internal error")}, func() error { return nil }, nil
	})

	_, err := e.Recognize(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error")
	assert.Equal(t, 3, calls)
}

func TestGeminiEmptyAnswerIsNotRetried(t *testing.T) {
	calls := 0
	e := testGemini([]string{"k1"}, func(context.Context, string, string) (contentGenerator, func() error, error) {
		calls++
		return &fakeGenerator{resp: textResponse("   ")}, func() error { return nil }, nil
	})

	_, err := e.Recognize(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrNoText)
	assert.Equal(t, 1, calls)
}

func TestGeminiWithoutKeys(t *testing.T) {
	e := testGemini(nil, nil)
	_, err := e.Recognize(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestExtractResponseTextStripsFence(t *testing.T) {
	text, err := extractResponseText(textResponse("```text\nNAME: HARI\nResult: F\n```"))
	require.NoError(t, err)
	assert.Equal(t, "NAME: HARI\nResult: F", text)

	_, err = extractResponseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("Resource has been exhausted (e.g. check quota).")))
	assert.True(t, isRateLimitError(errors.New("status 429")))
	assert.False(t, isRateLimitError(errors.New("invalid argument")))
}
