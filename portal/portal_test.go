package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterExams(t *testing.T) {
	options := []ExamOption{
		{Value: "", Text: "Select Exam"},
		{Value: "11", Text: "BSC 1st Year 2080"},
		{Value: "12", Text: "BBS 2nd Year 2080"},
		{Value: "13", Text: "BSC 3rd Year 2079"},
	}
	got := FilterExams(options, "BSC")
	assert.Equal(t, []ExamOption{options[1], options[3]}, got)
	assert.Empty(t, FilterExams(options, "MBBS"))
}

func TestSetDefaults(t *testing.T) {
	var o Options
	o.setDefaults()
	assert.Equal(t, 5*time.Second, o.RenderDelay)
	assert.Equal(t, 20*time.Second, o.PageTimeout)
	assert.Equal(t, 15*time.Second, o.ElementTimeout)
	assert.Equal(t, DefaultUserAgent, o.UserAgent)

	o = Options{RenderDelay: time.Second}
	o.setDefaults()
	assert.Equal(t, time.Second, o.RenderDelay)
}

func TestScriptsEscapeArguments(t *testing.T) {
	s := selectByLabelScript("Program", []string{`Bachelor Degree in Science (B.Sc.)`, `it's "quoted"`}, false)
	assert.Contains(t, s, `("Program", ["Bachelor Degree in Science (B.Sc.)","it's \"quoted\""], false)`)

	s = selectByLabelScript("Program Duration", nil, true)
	assert.Contains(t, s, `("Program Duration", [], true)`)

	assert.Contains(t, selectExamScript(`7"1`), `("7\"1")`)
	assert.Equal(t, `//label[contains(text(), 'Program')]`, labelXPath("Program"))
}
