package ocr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spaceServer(t *testing.T, status int, body string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSpaceRecognizeSendsFormAndReturnsText(t *testing.T) {
	var (
		fields  = map[string]string{}
		upload  []byte
		method  string
		fileErr error
	)
	srv := spaceServer(t, http.StatusOK,
		`{"ParsedResults":[{"ParsedText":"NAME: RAM\r\nResult: P"}],"IsErroredOnProcessing":false}`,
		func(r *http.Request) {
			method = r.Method
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				fileErr = err
				return
			}
			for k, v := range r.MultipartForm.Value {
				fields[k] = v[0]
			}
			f, _, err := r.FormFile("file")
			if err != nil {
				fileErr = err
				return
			}
			defer f.Close()
			upload, fileErr = io.ReadAll(f)
		})

	c := NewSpaceClient(SpaceOptions{URL: srv.URL, APIKey: "k-1", TableMode: true})
	text, err := c.Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, fileErr)

	assert.Equal(t, "NAME: RAM\r\nResult: P", text)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, []byte("png-bytes"), upload)
	assert.Equal(t, "k-1", fields["apikey"])
	assert.Equal(t, "eng", fields["language"])
	assert.Equal(t, "true", fields["isTable"])
	assert.Equal(t, "2", fields["OCREngine"])
	assert.Equal(t, EngineSpace, c.Name())
}

func TestSpaceRecognizeNon200(t *testing.T) {
	srv := spaceServer(t, http.StatusForbidden, "invalid api key", nil)
	c := NewSpaceClient(SpaceOptions{URL: srv.URL})

	_, err := c.Recognize(context.Background(), []byte("x"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Message, "invalid api key")
}

func TestSpaceRecognizeProcessingErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string message", `{"IsErroredOnProcessing":true,"ErrorMessage":"File too large"}`, "File too large"},
		{"list message", `{"IsErroredOnProcessing":true,"ErrorMessage":["Timed out","Retry later"]}`, "Timed out; Retry later"},
		{"missing message", `{"IsErroredOnProcessing":true}`, "unknown OCR error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := spaceServer(t, http.StatusOK, tt.body, nil)
			_, err := NewSpaceClient(SpaceOptions{URL: srv.URL}).Recognize(context.Background(), []byte("x"))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestSpaceRecognizeNoText(t *testing.T) {
	for _, body := range []string{
		`{"ParsedResults":[],"IsErroredOnProcessing":false}`,
		`{"ParsedResults":[{"ParsedText":"  \r\n "}],"IsErroredOnProcessing":false}`,
	} {
		srv := spaceServer(t, http.StatusOK, body, nil)
		_, err := NewSpaceClient(SpaceOptions{URL: srv.URL}).Recognize(context.Background(), []byte("x"))
		assert.ErrorIs(t, err, ErrNoText)
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	s := snippet(long)
	assert.Len(t, s, 203)
	assert.Equal(t, "short", snippet([]byte("  short \n")))
}
