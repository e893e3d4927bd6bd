package ui

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out), &out
}

func TestPromptTrimsAndAcceptsLastLineWithoutNewline(t *testing.T) {
	p, out := prompter("  7910123  \nlast")
	got, err := p.Prompt("Enter your symbol number")
	require.NoError(t, err)
	assert.Equal(t, "7910123", got)
	assert.Equal(t, "Enter your symbol number: ", out.String())

	got, err = p.Prompt("again")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = p.Prompt("eof")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPromptIntRetriesUntilNumber(t *testing.T) {
	p, out := prompter("abc\n\n42\n")
	n, err := p.PromptInt("Start")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a valid number."))
}

func TestPromptChoiceRejectsOutOfRange(t *testing.T) {
	p, out := prompter("0\n4\n2\n")
	idx, err := p.PromptChoice("Available exams:", []string{"BSC 1", "BSC 2", "BSC 3"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "2. BSC 2\n")
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a number between 1 and 3"))
}

func TestPromptChoiceEmpty(t *testing.T) {
	p, _ := prompter("1\n")
	_, err := p.PromptChoice("none", nil)
	assert.Error(t, err)
}

func TestPromptChoiceOrExit(t *testing.T) {
	p, _ := prompter("5\n0\n")
	_, err := p.PromptChoiceOrExit("files", []string{"a.txt", "b.txt"})
	assert.ErrorIs(t, err, ErrCancelled)

	p, _ = prompter("2\n")
	idx, err := p.PromptChoiceOrExit("files", []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, false},
	}
	for _, tt := range tests {
		p, _ := prompter(tt.input)
		got, err := p.Confirm("Proceed", tt.def)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestPromptRequired(t *testing.T) {
	p, out := prompter("\n  \nfile.txt\n")
	got, err := p.PromptRequired("Path")
	require.NoError(t, err)
	assert.Equal(t, "file.txt", got)
	assert.Equal(t, 2, strings.Count(out.String(), "This field is required."))
}
