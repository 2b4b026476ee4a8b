package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/codesim/constants/lipgloss"
)

// ConfirmPrompt asks a yes/no question and reports whether the answer was yes.
// EOF counts as no.
func ConfirmPrompt(out io.Writer, reader *bufio.Reader, question string) (bool, error) {
	fmt.Fprint(out, lipgloss.Yellow.Render(question+" (y/N): "))

	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// ConfirmPromptWithContext is ConfirmPrompt that gives up when ctx is cancelled.
func ConfirmPromptWithContext(ctx context.Context, out io.Writer, reader *bufio.Reader, question string) (bool, error) {
	type answer struct {
		yes bool
		err error
	}
	answerChan := make(chan answer, 1)

	go func() {
		yes, err := ConfirmPrompt(out, reader, question)
		answerChan <- answer{yes: yes, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false, ctx.Err()
	case a := <-answerChan:
		return a.yes, a.err
	}
}
