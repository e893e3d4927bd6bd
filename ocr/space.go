package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultSpaceURL is the OCR.space parse endpoint.
const DefaultSpaceURL = "https://api.ocr.space/parse/image"

// SpaceOptions configures a SpaceClient.
type SpaceOptions struct {
	URL           string
	APIKey        string
	Language      string
	EngineVersion string
	TableMode     bool
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// SpaceClient calls the OCR.space parse API.
type SpaceClient struct {
	opts SpaceOptions
	http *http.Client
}

// NewSpaceClient creates an OCR.space client. Zero fields take the service
// defaults used by the capture pipeline.
func NewSpaceClient(opts SpaceOptions) *SpaceClient {
	if opts.URL == "" {
		opts.URL = DefaultSpaceURL
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.EngineVersion == "" {
		opts.EngineVersion = "2"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SpaceClient{opts: opts, http: client}
}

func (c *SpaceClient) Name() string { return EngineSpace }

type spaceResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Recognize uploads image and returns the text of the first parsed result.
func (c *SpaceClient) Recognize(ctx context.Context, image []byte) (string, error) {
	body, contentType, err := c.encodeForm(image)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, body)
	if err != nil {
		return "", fmt.Errorf("build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Engine: EngineSpace, Status: resp.StatusCode, Message: snippet(payload)}
	}

	var parsed spaceResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decode OCR response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", &APIError{Engine: EngineSpace, Message: errorMessage(parsed.ErrorMessage)}
	}
	if len(parsed.ParsedResults) == 0 {
		return "", ErrNoText
	}

	text := parsed.ParsedResults[0].ParsedText
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (c *SpaceClient) encodeForm(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "screenshot.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}

	fields := [][2]string{
		{"apikey", c.opts.APIKey},
		{"language", c.opts.Language},
		{"isTable", strconv.FormatBool(c.opts.TableMode)},
		{"OCREngine", c.opts.EngineVersion},
		{"filetype", "PNG"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// errorMessage flattens ErrorMessage, which the API sends either as a string
// or as a list of strings.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown OCR error"
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return one
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return string(raw)
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
