//go:build integration

package portal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakePortal = `<!doctype html>
<html><body>
<select id="exam">
  <option value="">Select Exam</option>
  <option value="21">BSC 2nd Year 2080</option>
  <option value="31">BBS 3rd Year 2080</option>
</select>
<label for="program">Program</label>
<select id="program">
  <option value="">--</option>
  <option value="bsc">Bachelor Degree in Science (B.Sc.)</option>
</select>
<label for="duration">Program Duration</label>
<select id="duration">
  <option value="">--</option>
  <option value="2">2nd Year</option>
</select>
<input id="symbol" placeholder="Enter Symbol Number">
<button onclick="document.getElementById('out').textContent = [exam.value, program.value, duration.value, symbol.value].join('|')">Search</button>
<pre id="out"></pre>
</body></html>`

func TestSessionAgainstFakePortal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, fakePortal)
	}))
	defer srv.Close()

	ctx := context.Background()
	s, err := New(ctx, Options{
		URL:          srv.URL,
		ExamCategory: "BSC",
		ProgramName:  "Bachelor Degree in Science (B.Sc.)",
		Durations:    []string{"1st Year", "2nd Year"},
		RenderDelay:  100 * time.Millisecond,
		Headless:     true,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(ctx))
	exams, err := s.ExamOptions(ctx)
	require.NoError(t, err)
	require.Equal(t, []ExamOption{{Value: "21", Text: "BSC 2nd Year 2080"}}, exams)

	png, err := s.Lookup(ctx, exams[0], "7910123")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
