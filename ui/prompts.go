// Package ui provides the interactive prompts and progress display used by
// the command-line menu.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// ErrCancelled is returned when the user picks the exit entry of a list.
var ErrCancelled = errors.New("ui: cancelled")

// Prompter reads answers from one input stream. Invalid answers are
// reported and asked again.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter over in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Stdio returns a prompter on the process terminal.
func Stdio() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout)
}

// Prompt asks for a line of input and returns it trimmed.
func (p *Prompter) Prompt(message string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptRequired asks until a non-empty answer is given.
func (p *Prompter) PromptRequired(message string) (string, error) {
	for {
		input, err := p.Prompt(message)
		if err != nil {
			return "", err
		}
		if input != "" {
			return input, nil
		}
		p.errorf("This field is required. Please enter a value.")
	}
}

// PromptInt asks until an integer is given.
func (p *Prompter) PromptInt(message string) (int, error) {
	for {
		input, err := p.Prompt(message)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(input)
		if convErr == nil {
			return n, nil
		}
		p.errorf("Please enter a valid number.")
	}
}

// PromptChoice lists choices numbered from 1 and returns the 0-based index
// of the one picked.
func (p *Prompter) PromptChoice(message string, choices []string) (int, error) {
	if len(choices) == 0 {
		return 0, errors.New("ui: no choices")
	}
	p.list(message, choices)
	for {
		n, err := p.PromptInt("Enter the number of your choice")
		if err != nil {
			return 0, err
		}
		if n >= 1 && n <= len(choices) {
			return n - 1, nil
		}
		p.errorf("Please enter a number between 1 and %d", len(choices))
	}
}

// PromptChoiceOrExit is PromptChoice with 0 meaning exit, reported as
// ErrCancelled.
func (p *Prompter) PromptChoiceOrExit(message string, choices []string) (int, error) {
	p.list(message, choices)
	for {
		n, err := p.PromptInt("Enter the number of your choice (0 to exit)")
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, ErrCancelled
		}
		if n >= 1 && n <= len(choices) {
			return n - 1, nil
		}
		p.errorf("Invalid choice. Please try again.")
	}
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(message string, defaultValue bool) (bool, error) {
	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}
	input, err := p.Prompt(fmt.Sprintf("%s [%s]", message, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "":
		return defaultValue, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) list(message string, choices []string) {
	fmt.Fprintf(p.out, "\n%s\n", message)
	for i, c := range choices {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, c)
	}
}

func (p *Prompter) errorf(format string, args ...any) {
	fmt.Fprintln(p.out, color.RedString(format, args...))
}
