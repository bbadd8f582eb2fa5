package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/buroca/constants/lipgloss"
)

// ConfirmPrompt asks a yes/no question and reports whether the answer was
// yes. An empty answer or end of input means no.
func ConfirmPrompt(ctx context.Context, reader *bufio.Reader, out io.Writer, question string) (bool, error) {
	answerChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		fmt.Fprint(out, lipgloss.BlueSky.Render(question+" [y/N] "))

		answer, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			errChan <- fmt.Errorf("error reading input: %w", err)
			return
		}
		answerChan <- strings.ToLower(strings.TrimSpace(answer))
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false, ctx.Err()
	case err := <-errChan:
		return false, err
	case answer := <-answerChan:
		return answer == "y" || answer == "yes", nil
	}
}
